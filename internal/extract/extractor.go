package extract

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"review-scout/internal/observability/metrics"
)

// FieldSpec declares the extraction tiers for one field in plain data, so
// site profiles can be described in configuration. Empty tiers are skipped.
type FieldSpec struct {
	// Selectors is the ranked structural query list, most specific first.
	Selectors []string `yaml:"selectors"`

	// SelectorAttr reads this attribute at matched nodes instead of text.
	SelectorAttr string `yaml:"selector_attr"`

	// Attrs names machine-readable attributes on the node itself.
	Attrs []string `yaml:"attrs"`

	// Pattern is a regex over the node's flattened text. Group selects the
	// capture group carrying the value.
	Pattern string `yaml:"pattern"`
	Group   int    `yaml:"group"`

	// Fallback enables the longest-text fallback tier.
	Fallback bool `yaml:"fallback"`

	// Validate names the validator: "", "rating", "count", "date", "text".
	Validate string `yaml:"validate"`
}

// Extractor owns the compiled chain per field for one site profile.
type Extractor struct {
	chains map[string]Chain
}

// New compiles field specs into an Extractor. Noise labels feed the fallback
// tier of every free-text field.
func New(specs map[string]FieldSpec, noise []string) (*Extractor, error) {
	chains := make(map[string]Chain, len(specs))
	for field, spec := range specs {
		chain, err := compile(field, spec, noise)
		if err != nil {
			return nil, fmt.Errorf("compile field %q: %w", field, err)
		}
		chains[field] = chain
	}
	return &Extractor{chains: chains}, nil
}

// Extract pulls the named field out of a node. Unknown fields and exhausted
// chains both report Absent.
func (e *Extractor) Extract(field string, sel *goquery.Selection) Result {
	chain, ok := e.chains[field]
	if !ok {
		return Absent()
	}
	res := chain.Extract(sel)
	if res.OK {
		metrics.RecordFieldExtracted(field, res.Tier.String())
	} else {
		metrics.RecordFieldAbsent(field)
	}
	return res
}

// Has reports whether a chain exists for the field.
func (e *Extractor) Has(field string) bool {
	_, ok := e.chains[field]
	return ok
}

func compile(field string, spec FieldSpec, noise []string) (Chain, error) {
	var strategies []Strategy

	if len(spec.Selectors) > 0 {
		strategies = append(strategies, Selectors(spec.SelectorAttr, spec.Selectors...))
	}
	if len(spec.Attrs) > 0 {
		strategies = append(strategies, Attrs(spec.Attrs...))
	}
	if spec.Pattern != "" {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return Chain{}, fmt.Errorf("pattern: %w", err)
		}
		strategies = append(strategies, Pattern(re, spec.Group))
	}
	if spec.Fallback {
		strategies = append(strategies, LongestText(fallbackMinRunes, noise))
	}
	if len(strategies) == 0 {
		return Chain{}, fmt.Errorf("field spec declares no extraction tier")
	}

	return NewChain(field, validatorFor(spec.Validate), strategies...), nil
}

const fallbackMinRunes = 3

func validatorFor(name string) Validator {
	switch name {
	case "rating":
		return RatingValue
	case "count":
		return CountValue
	case "date":
		return DateText
	case "text":
		return FreeText
	default:
		return NonEmpty
	}
}
