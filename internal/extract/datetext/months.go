package datetext

import (
	"strings"
	"time"
)

// monthNames maps locale month tokens to calendar months. Russian entries are
// in the genitive case because that is how dates render on the sources
// ("3 января"), with nominative and short forms included for safety.
var monthNames = map[string]time.Month{
	// Russian, genitive
	"января": time.January, "февраля": time.February, "марта": time.March,
	"апреля": time.April, "мая": time.May, "июня": time.June,
	"июля": time.July, "августа": time.August, "сентября": time.September,
	"октября": time.October, "ноября": time.November, "декабря": time.December,

	// Russian, nominative
	"январь": time.January, "февраль": time.February, "март": time.March,
	"апрель": time.April, "май": time.May, "июнь": time.June,
	"июль": time.July, "август": time.August, "сентябрь": time.September,
	"октябрь": time.October, "ноябрь": time.November, "декабрь": time.December,

	// Russian, short
	"янв": time.January, "фев": time.February, "мар": time.March,
	"апр": time.April, "июн": time.June, "июл": time.July,
	"авг": time.August, "сен": time.September, "сент": time.September,
	"окт": time.October, "ноя": time.November, "нояб": time.November,
	"дек": time.December,

	// English, full
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,

	// English, short
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November,
	"dec": time.December,
}

// lookupMonth resolves one token to a month. Trailing dots from abbreviations
// ("янв.", "Jan.") are tolerated.
func lookupMonth(token string) (time.Month, bool) {
	token = strings.Trim(strings.ToLower(token), ".,")
	m, ok := monthNames[token]
	return m, ok
}
