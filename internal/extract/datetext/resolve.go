// Package datetext resolves the free-form date strings review sources render
// into calendar dates. It understands Russian and English month names,
// relative words, common numeric layouts, and infers missing years from a
// reference date. Unresolvable input is preserved as raw text, never dropped.
package datetext

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"review-scout/internal/domain/entity"
)

var (
	numericDotted = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`)
	numericISO    = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	yearToken     = regexp.MustCompile(`\b(\d{4})\b`)
	dayToken      = regexp.MustCompile(`^\d{1,2}$`)
)

// Resolve parses raw date text into a DateValue. The reference time supplies
// the year for dates rendered without one: current year, rolled back one year
// when that would place the date in the future.
func Resolve(raw string, ref time.Time) entity.DateValue {
	text := normalize(raw)
	if text == "" {
		return entity.NewRawDate(raw)
	}

	// Relative words first: they carry no month to match.
	if t, ok := resolveRelative(text, ref); ok {
		return entity.NewResolvedDate(t, raw)
	}

	if t, ok := resolveNumeric(text); ok {
		return entity.NewResolvedDate(t, raw)
	}

	if day, month, year, ok := findDayMonthYear(text); ok {
		if year == 0 {
			year = ref.Year()
			candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if candidate.After(ref) {
				year--
			}
		}
		return entity.NewResolvedDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC), raw)
	}

	// Last tier: the generic parser catches layouts the tables above miss.
	if t, err := dateparse.ParseAny(text); err == nil {
		return entity.NewResolvedDate(t.UTC().Truncate(24*time.Hour), raw)
	}

	return entity.NewRawDate(raw)
}

// ResolveResponse parses the date of an organization response. When the text
// carries no year, the year is inferred from the review date: a (month, day)
// before the review's means the calendar rolled over, so the response falls in
// review_year+1; otherwise review_year. A review date that is itself
// unresolved degrades to plain Resolve against the reference time.
func ResolveResponse(raw string, review entity.DateValue, ref time.Time) entity.DateValue {
	text := normalize(raw)
	if text == "" {
		return entity.NewRawDate(raw)
	}

	if !review.Resolved {
		return Resolve(raw, ref)
	}

	if t, ok := resolveRelative(text, ref); ok {
		return entity.NewResolvedDate(t, raw)
	}
	if t, ok := resolveNumeric(text); ok {
		return entity.NewResolvedDate(t, raw)
	}

	day, month, year, ok := findDayMonthYear(text)
	if !ok {
		if t, err := dateparse.ParseAny(text); err == nil {
			return entity.NewResolvedDate(t.UTC().Truncate(24*time.Hour), raw)
		}
		return entity.NewRawDate(raw)
	}

	if year == 0 {
		year = review.Time.Year()
		if monthDayBefore(month, day, review.Time.Month(), review.Time.Day()) {
			year++
		}
	}

	return entity.NewResolvedDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC), raw)
}

// monthDayBefore reports whether (m1, d1) precedes (m2, d2) within a year.
func monthDayBefore(m1 time.Month, d1 int, m2 time.Month, d2 int) bool {
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}

// normalize lowercases the text and strips decorations sources attach to
// dates: the "г." year marker, commas, and collapsed whitespace.
func normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "г.", " ")
	s = strings.ReplaceAll(s, ",", " ")
	return strings.Join(strings.Fields(s), " ")
}

func resolveRelative(text string, ref time.Time) (time.Time, bool) {
	day := ref.UTC().Truncate(24 * time.Hour)
	switch text {
	case "сегодня", "today":
		return day, true
	case "вчера", "yesterday":
		return day.AddDate(0, 0, -1), true
	case "позавчера":
		return day.AddDate(0, 0, -2), true
	}
	return time.Time{}, false
}

func resolveNumeric(text string) (time.Time, bool) {
	if m := numericDotted.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if validDate(day, time.Month(month)) {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
	}
	if m := numericISO.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if validDate(day, time.Month(month)) {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// findDayMonthYear scans whitespace tokens for a month name and pairs it with
// a neighbouring day number and optional 4-digit year. Token order is free so
// both "3 января 2025" and "January 3, 2025" resolve.
func findDayMonthYear(text string) (int, time.Month, int, bool) {
	tokens := strings.Fields(text)
	monthIdx := -1
	var month time.Month
	for i, tok := range tokens {
		if m, ok := lookupMonth(tok); ok {
			monthIdx = i
			month = m
			break
		}
	}
	if monthIdx < 0 {
		return 0, 0, 0, false
	}

	day := 0
	for _, idx := range []int{monthIdx - 1, monthIdx + 1} {
		if idx < 0 || idx >= len(tokens) {
			continue
		}
		if dayToken.MatchString(tokens[idx]) {
			if d, err := strconv.Atoi(tokens[idx]); err == nil && validDate(d, month) {
				day = d
				break
			}
		}
	}
	if day == 0 {
		return 0, 0, 0, false
	}

	year := 0
	if m := yearToken.FindString(text); m != "" {
		year, _ = strconv.Atoi(m)
	}

	return day, month, year, true
}

func validDate(day int, month time.Month) bool {
	return day >= 1 && day <= 31 && month >= time.January && month <= time.December
}
