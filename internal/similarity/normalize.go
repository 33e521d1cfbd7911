// Package similarity scores how plausibly a discovered listing name matches
// the target query name, and selects the listings worth keeping. Fuzzy search
// surfaces unrelated organizations that share a partial name; this package is
// what keeps them out of the aggregate.
package similarity

import "strings"

// corporateForms are legal-form prefixes stripped before comparison. A name
// like `ООО "Смарт Хоум"` and "Смарт Хоум" must compare equal.
var corporateForms = []string{
	"ооо", "зао", "оао", "пао", "ао", "ип", "нко", "ано",
	"llc", "ltd", "inc", "corp", "gmbh", "co",
}

// industryWords is a small stoplist of generic industry words carrying no
// identity. Kept deliberately short: stripping too much makes everything
// match everything.
var industryWords = map[string]struct{}{
	"клиника": {}, "салон": {}, "центр": {}, "студия": {}, "агентство": {},
	"компания": {}, "магазин": {}, "сервис": {}, "медицинский": {},
	"стоматология": {},
	"clinic":       {}, "salon": {}, "center": {}, "centre": {}, "studio": {},
	"agency": {}, "company": {}, "store": {}, "service": {}, "group": {},
}

// Normalize case-folds a name, collapses whitespace, strips quotes and
// punctuation, drops corporate-form prefixes and generic industry words.
// The result is the word list used for scoring.
func Normalize(name string) []string {
	lowered := strings.ToLower(name)
	lowered = strings.Map(func(r rune) rune {
		switch r {
		case '"', '«', '»', '\'', '“', '”', ',', '.', '(', ')':
			return ' '
		}
		return r
	}, lowered)

	words := strings.Fields(lowered)

	// Corporate forms are only prefixes: "ооо ромашка" loses "ооо", but a
	// name that IS a form word alone keeps it.
	for len(words) > 1 && isCorporateForm(words[0]) {
		words = words[1:]
	}

	kept := words[:0]
	for _, w := range words {
		if _, generic := industryWords[w]; generic && len(words) > 1 {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return words
	}
	return kept
}

// NormalizedString returns the normalized name as a single string.
func NormalizedString(name string) string {
	return strings.Join(Normalize(name), " ")
}

func isCorporateForm(word string) bool {
	for _, f := range corporateForms {
		if word == f {
			return true
		}
	}
	return false
}
