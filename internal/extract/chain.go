package extract

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Validator accepts or rejects a candidate value for a field. A rejected
// value does not stop the chain; the next strategy is tried.
type Validator func(string) bool

// Standard validators. Fields without stricter needs use NonEmpty.
var (
	// NonEmpty accepts any non-blank value.
	NonEmpty Validator = func(v string) bool { return strings.TrimSpace(v) != "" }

	// RatingValue accepts a parseable rating in 0..5. Comma decimal
	// separators are tolerated ("4,5").
	RatingValue Validator = func(v string) bool {
		f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
		return err == nil && f >= 0 && f <= 5
	}

	// CountValue accepts a non-negative integer, with thousands separators
	// stripped.
	CountValue Validator = func(v string) bool {
		n, err := strconv.Atoi(stripSeparators(v))
		return err == nil && n >= 0
	}

	// DateText accepts a plausibly short date fragment.
	DateText Validator = func(v string) bool {
		n := len([]rune(v))
		return n > 0 && n <= 40
	}

	// FreeText accepts fragments long enough to be review prose.
	FreeText Validator = func(v string) bool { return len([]rune(v)) >= 3 }
)

// MaxRunes wraps a validator with an upper length bound.
func MaxRunes(limit int, inner Validator) Validator {
	return func(v string) bool {
		return len([]rune(v)) <= limit && inner(v)
	}
}

var separatorRe = regexp.MustCompile(`[\s\x{00a0}.,']`)

func stripSeparators(v string) string {
	return separatorRe.ReplaceAllString(v, "")
}

// Chain is the ordered strategy list serving one named field.
type Chain struct {
	field      string
	strategies []Strategy
	validate   Validator
}

// NewChain builds a chain. A nil validator defaults to NonEmpty.
func NewChain(field string, validate Validator, strategies ...Strategy) Chain {
	if validate == nil {
		validate = NonEmpty
	}
	return Chain{field: field, strategies: strategies, validate: validate}
}

// Field returns the field name the chain serves.
func (c Chain) Field() string { return c.field }

// Extract runs the chain against a node. The first validator-passing result
// wins; a fully exhausted chain reports Absent, never an error.
func (c Chain) Extract(sel *goquery.Selection) Result {
	if sel == nil || sel.Length() == 0 {
		return Absent()
	}
	for _, s := range c.strategies {
		res := s.Extract(sel)
		if !res.OK {
			continue
		}
		if !c.validate(res.Value) {
			slog.Debug("extracted value rejected by validator",
				slog.String("field", c.field),
				slog.String("strategy", s.Name()),
				slog.String("value", clip(res.Value, 60)))
			continue
		}
		return res
	}
	return Absent()
}

func clip(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
