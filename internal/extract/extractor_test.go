package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}

func TestChain_StructuralTierWins(t *testing.T) {
	sel := docFromHTML(t, `<div><h1 itemprop="name">Smile Dental</h1><div data-name="wrong">x</div></div>`)

	chain := NewChain("name", nil,
		Selectors("", "h1[itemprop=name]", "h1"),
		Attrs("data-name"),
	)

	res := chain.Extract(sel)
	require.True(t, res.OK)
	assert.Equal(t, "Smile Dental", res.Value)
	assert.Equal(t, TierStructural, res.Tier)
}

func TestChain_FallsThroughToAttribute(t *testing.T) {
	sel := docFromHTML(t, `<div data-rating="4.6"><span class="other">hello</span></div>`)

	chain := NewChain("rating", RatingValue,
		Selectors("", ".rating-value"),
		Attrs("data-rating"),
	)

	res := chain.Extract(sel.Find("div"))
	require.True(t, res.OK)
	assert.Equal(t, "4.6", res.Value)
	assert.Equal(t, TierAttribute, res.Tier)
}

func TestChain_RegexOverFlattenedText(t *testing.T) {
	sel := docFromHTML(t, `<div><span>Рейтинг</span> <b>4,5 из 5</b> на основе 120 отзывов</div>`)

	ex, err := New(map[string]FieldSpec{
		"rating": {Pattern: `(\d[.,]\d)\s*(?:из|/)\s*5`, Group: 1, Validate: "rating"},
		"count":  {Pattern: `(\d[\d\s]*)\s*отзыв`, Group: 1, Validate: "count"},
	}, nil)
	require.NoError(t, err)

	rating := ex.Extract("rating", sel)
	require.True(t, rating.OK)
	assert.Equal(t, "4,5", rating.Value)
	assert.Equal(t, TierRegex, rating.Tier)

	count := ex.Extract("count", sel)
	require.True(t, count.OK)
	assert.Equal(t, "120", count.Value)
}

func TestChain_LongestTextSkipsNoise(t *testing.T) {
	sel := docFromHTML(t, `<div class="review">
		<span class="more">Читать далее</span>
		<p>Отличная клиника, вернусь снова. Врачи внимательные.</p>
		<span>Полезно</span>
	</div>`)

	chain := NewChain("text", FreeText,
		Selectors("", ".review-body"),
		LongestText(3, DefaultNoiseLabels()),
	)

	res := chain.Extract(sel.Find(".review"))
	require.True(t, res.OK)
	assert.Equal(t, TierFallback, res.Tier)
	assert.Contains(t, res.Value, "Отличная клиника")
	assert.NotContains(t, res.Value, "Читать далее")
}

func TestChain_ValidatorRejectionMovesOn(t *testing.T) {
	// Structural tier yields text that fails the rating validator; the
	// attribute tier then supplies a valid value.
	sel := docFromHTML(t, `<div data-rating="5"><span class="rating-value">великолепно</span></div>`)

	chain := NewChain("rating", RatingValue,
		Selectors("", ".rating-value"),
		Attrs("data-rating"),
	)

	res := chain.Extract(sel.Find("div"))
	require.True(t, res.OK)
	assert.Equal(t, "5", res.Value)
	assert.Equal(t, TierAttribute, res.Tier)
}

func TestChain_ExhaustedReportsAbsent(t *testing.T) {
	sel := docFromHTML(t, `<div></div>`)

	chain := NewChain("name", nil, Selectors("", "h1"), Attrs("data-name"))

	res := chain.Extract(sel.Find("div"))
	assert.False(t, res.OK)
}

func TestExtractor_UnknownFieldAbsent(t *testing.T) {
	ex, err := New(DefaultListingFields(), DefaultNoiseLabels())
	require.NoError(t, err)

	res := ex.Extract("no_such_field", docFromHTML(t, `<div>x</div>`))
	assert.False(t, res.OK)
}

func TestDefaultProfiles_Compile(t *testing.T) {
	_, err := New(DefaultListingFields(), DefaultNoiseLabels())
	require.NoError(t, err)
	_, err = New(DefaultReviewFields(), DefaultNoiseLabels())
	require.NoError(t, err)
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		v     Validator
		value string
		want  bool
	}{
		{"rating in range", RatingValue, "4.5", true},
		{"rating comma", RatingValue, "4,5", true},
		{"rating out of range", RatingValue, "9", false},
		{"rating not numeric", RatingValue, "great", false},
		{"count plain", CountValue, "120", true},
		{"count with nbsp", CountValue, "1 204", true},
		{"count negative", CountValue, "-3", false},
		{"date short", DateText, "3 января", true},
		{"date too long", DateText, strings.Repeat("x", 41), false},
		{"free text", FreeText, "ок!", true},
		{"free text too short", FreeText, "ок", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v(tt.value))
		})
	}
}
