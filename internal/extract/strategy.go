package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is one tier in a field's extraction chain. Implementations must
// not panic or return errors; a tier that cannot produce a value reports
// Absent and the chain moves on.
type Strategy interface {
	Name() string
	Extract(sel *goquery.Selection) Result
}

// selectorStrategy tries an ordered list of structural queries, most specific
// first. The content source changes markup without notice, so every field
// keeps several alternative locators.
type selectorStrategy struct {
	selectors []string
	attr      string // read this attribute at the matched node; "" reads text
}

// Selectors builds a structural-query strategy over the given ranked list.
func Selectors(attr string, selectors ...string) Strategy {
	return &selectorStrategy{selectors: selectors, attr: attr}
}

func (s *selectorStrategy) Name() string { return "selectors" }

func (s *selectorStrategy) Extract(sel *goquery.Selection) Result {
	for _, query := range s.selectors {
		match := sel.Find(query).First()
		if match.Length() == 0 {
			continue
		}
		var value string
		if s.attr != "" {
			value, _ = match.Attr(s.attr)
		} else {
			value = match.Text()
		}
		value = collapseSpace(value)
		if value != "" {
			return Found(value, TierStructural)
		}
	}
	return Absent()
}

// attrStrategy reads machine-readable metadata carried on the node itself,
// e.g. data-rating or itemprop content attributes.
type attrStrategy struct {
	attrs []string
}

// Attrs builds an attribute strategy over the given attribute names.
func Attrs(attrs ...string) Strategy {
	return &attrStrategy{attrs: attrs}
}

func (a *attrStrategy) Name() string { return "attrs" }

func (a *attrStrategy) Extract(sel *goquery.Selection) Result {
	for _, name := range a.attrs {
		if value, ok := sel.Attr(name); ok {
			if value = collapseSpace(value); value != "" {
				return Found(value, TierAttribute)
			}
		}
		// itemprop-style metadata often lives on a direct child.
		match := sel.Find("[" + name + "]").First()
		if match.Length() > 0 {
			if value, ok := match.Attr(name); ok {
				if value = collapseSpace(value); value != "" {
					return Found(value, TierAttribute)
				}
			}
		}
	}
	return Absent()
}

// regexStrategy matches a pattern over the node's flattened visible text. It
// serves numeric fields (ratings, counts) and locale date fragments.
type regexStrategy struct {
	re    *regexp.Regexp
	group int
}

// Pattern builds a regex strategy. The value is taken from the given capture
// group, or the whole match when group is 0.
func Pattern(re *regexp.Regexp, group int) Strategy {
	return &regexStrategy{re: re, group: group}
}

func (r *regexStrategy) Name() string { return "pattern" }

func (r *regexStrategy) Extract(sel *goquery.Selection) Result {
	text := collapseSpace(sel.Text())
	if text == "" {
		return Absent()
	}
	m := r.re.FindStringSubmatch(text)
	if m == nil || r.group >= len(m) {
		return Absent()
	}
	if value := collapseSpace(m[r.group]); value != "" {
		return Found(value, TierRegex)
	}
	return Absent()
}

// longestTextStrategy takes the longest qualifying text fragment among the
// node's children after excluding known noise labels (navigation affordances,
// read-more prompts and the like). It is the last resort for free text.
type longestTextStrategy struct {
	noise  []string
	minLen int
}

// LongestText builds the free-text fallback strategy. Fragments shorter than
// minLen runes or matching a noise label are skipped.
func LongestText(minLen int, noise []string) Strategy {
	lowered := make([]string, len(noise))
	for i, n := range noise {
		lowered[i] = strings.ToLower(n)
	}
	return &longestTextStrategy{noise: lowered, minLen: minLen}
}

func (l *longestTextStrategy) Name() string { return "longest-text" }

func (l *longestTextStrategy) Extract(sel *goquery.Selection) Result {
	best := ""
	sel.Find("*").Each(func(_ int, child *goquery.Selection) {
		if child.Children().Length() > 0 {
			return // only leaf fragments compete
		}
		text := collapseSpace(child.Text())
		if len([]rune(text)) < l.minLen {
			return
		}
		if l.isNoise(text) {
			return
		}
		if len(text) > len(best) {
			best = text
		}
	})
	if best == "" {
		// The node itself may be a leaf.
		if text := collapseSpace(sel.Text()); len([]rune(text)) >= l.minLen && !l.isNoise(text) {
			best = text
		}
	}
	if best == "" {
		return Absent()
	}
	return Found(best, TierFallback)
}

func (l *longestTextStrategy) isNoise(text string) bool {
	lowered := strings.ToLower(text)
	for _, n := range l.noise {
		if lowered == n || strings.HasPrefix(lowered, n) {
			return true
		}
	}
	return false
}

// collapseSpace trims and collapses all runs of whitespace to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
