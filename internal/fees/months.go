package fees

import "strings"

// Months are the canonical month keys of a MonthlyFeeRecord, in calendar order.
var Months = [12]string{
	"জানুয়ারি",
	"ফেব্রুয়ারি",
	"মার্চ",
	"এপ্রিল",
	"মে",
	"জুন",
	"জুলাই",
	"আগস্ট",
	"সেপ্টেম্বর",
	"অক্টোবর",
	"নভেম্বর",
	"ডিসেম্বর",
}

var englishMonths = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// NormalizeMonth maps a canonical or English month name to its canonical key.
func NormalizeMonth(name string) (string, bool) {
	i := MonthIndex(name)
	if i < 0 {
		return "", false
	}
	return Months[i], true
}

// MonthIndex returns the zero-based calendar index of a month name, or -1.
func MonthIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, m := range Months {
		if m == name {
			return i
		}
	}
	lower := strings.ToLower(name)
	for i, m := range englishMonths {
		if m == lower || (len(lower) == 3 && strings.HasPrefix(m, lower)) {
			return i
		}
	}
	return -1
}

// EnglishMonth returns the English name of a month key for output that cannot
// render Bengali, such as core PDF fonts. Unknown names are returned as given.
func EnglishMonth(name string) string {
	i := MonthIndex(name)
	if i < 0 {
		return name
	}
	return strings.ToUpper(englishMonths[i][:1]) + englishMonths[i][1:]
}
