package extract

// Field names the pipeline extracts. Profiles may add more; these are the
// ones the normalizer and pipeline know by name.
const (
	FieldName        = "name"
	FieldAddress     = "address"
	FieldRating      = "rating"
	FieldReviewCount = "review_count"
	FieldPhone       = "phone"
	FieldWebsite     = "website"

	FieldReviewAuthor = "review_author"
	FieldReviewRating = "review_rating"
	FieldReviewDate   = "review_date"
	FieldReviewText   = "review_text"
	FieldReviewID     = "review_id"
)

// DefaultNoiseLabels lists UI affordances the free-text fallback must never
// mistake for review prose.
func DefaultNoiseLabels() []string {
	return []string{
		"читать далее", "читать полностью", "показать еще", "показать ещё",
		"развернуть", "свернуть", "ответить", "полезно", "пожаловаться",
		"подписаться", "поделиться", "оценить",
		"read more", "show more", "load more", "reply", "useful",
		"helpful", "subscribe", "share", "report",
	}
}

// DefaultListingFields is the stock field profile for listing pages. Real
// deployments override per site in configuration; these defaults cover the
// schema.org microdata most listing sources still carry plus the class names
// observed at the time of writing.
func DefaultListingFields() map[string]FieldSpec {
	return map[string]FieldSpec{
		FieldName: {
			Selectors: []string{
				"h1[itemprop=name]", "h1.org-name", "h1.title", "h1",
				"[itemprop=name]",
			},
			Fallback: true,
		},
		FieldAddress: {
			Selectors: []string{
				"[itemprop=address]", "address", ".org-address", ".address",
			},
			Attrs: []string{"data-address"},
		},
		FieldRating: {
			Selectors: []string{
				"[itemprop=ratingValue]", ".rating-value", ".org-rating .value",
			},
			SelectorAttr: "",
			Attrs:        []string{"data-rating", "content"},
			Pattern:      `(\d[.,]\d)\s*(?:из|out of|/)\s*5`,
			Group:        1,
			Validate:     "rating",
		},
		FieldReviewCount: {
			Selectors: []string{
				"[itemprop=reviewCount]", ".reviews-count", ".org-reviews .count",
			},
			Attrs:    []string{"data-count"},
			Pattern:  `(\d[\d\s\x{00a0}]*)\s*(?:отзыв|review)`,
			Group:    1,
			Validate: "count",
		},
		FieldPhone: {
			Selectors:    []string{"a[href^='tel:']", "[itemprop=telephone]", ".org-phone"},
			SelectorAttr: "",
			Attrs:        []string{"data-phone"},
		},
		FieldWebsite: {
			Selectors:    []string{"a[itemprop=url]", "a.org-website", "a[rel~=nofollow][href^='http']"},
			SelectorAttr: "href",
		},
	}
}

// DefaultReviewFields is the stock field profile for review nodes.
func DefaultReviewFields() map[string]FieldSpec {
	return map[string]FieldSpec{
		FieldReviewID: {
			Attrs: []string{"data-id", "data-review-id", "id"},
		},
		FieldReviewAuthor: {
			Selectors: []string{
				"[itemprop=author]", ".review-author", ".comment-author", ".author",
			},
			Attrs: []string{"data-author"},
		},
		FieldReviewRating: {
			Selectors: []string{
				"[itemprop=ratingValue]", ".review-rating .value", ".stars-value",
			},
			Attrs:    []string{"data-rating", "data-stars"},
			Pattern:  `(\d)\s*(?:из|out of|/)\s*5`,
			Group:    1,
			Validate: "rating",
		},
		FieldReviewDate: {
			Selectors: []string{
				"time[datetime]", "[itemprop=datePublished]", ".review-date", ".date",
			},
			Attrs:    []string{"datetime", "data-date"},
			Pattern:  `\d{1,2}\s+[\p{L}]+(?:\s+\d{4})?`,
			Validate: "date",
		},
		FieldReviewText: {
			Selectors: []string{
				"[itemprop=reviewBody]", ".review-text", ".comment-text", ".text",
			},
			Fallback: true,
			Validate: "text",
		},
	}
}
