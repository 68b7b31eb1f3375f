package report

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// missingMarkers are cell values the census and Redfin exports use for "no data".
var missingMarkers = map[string]bool{
	"":      true,
	"*****": true,
	"-":     true,
	"N/A":   true,
	"(X)":   true,
}

var printer = message.NewPrinter(language.English)

// IsMissing reports whether a raw cell carries no data.
func IsMissing(raw string) bool {
	return missingMarkers[strings.TrimSpace(raw)]
}

// ParseNumber parses a plain numeric cell such as "5,024,279" or "59609".
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if IsMissing(s) {
		return 0, false
	}
	return parseFinite(strings.ReplaceAll(s, ",", ""))
}

// parseFinite parses s as a float. NaN and infinities count as no data.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDollar parses a dollar string such as "$131K" or "$55,000".
// A trailing K multiplies the value by 1000.
func ParseDollar(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if IsMissing(s) {
		return 0, false
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")

	mult := 1.0
	if strings.HasSuffix(s, "K") || strings.HasSuffix(s, "k") {
		mult = 1000
		s = s[:len(s)-1]
	}

	f, ok := parseFinite(strings.TrimSpace(s))
	if !ok {
		return 0, false
	}
	return f * mult, true
}

// Ordinal formats a rank as an English ordinal: 1st, 2nd, 3rd, 4th, 11th, 21st.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// FormatCount truncates v and formats it with thousands separators.
func FormatCount(v float64) string {
	return printer.Sprintf("%d", int64(v))
}

// FormatDollars formats v as whole dollars, e.g. "$1,234" or "-$5".
func FormatDollars(v float64) string {
	if v < 0 {
		return "-$" + FormatCount(-v)
	}
	return "$" + FormatCount(v)
}

// FormatRatio formats an affordability ratio with one decimal.
func FormatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// DisplayName turns a key row into a title-cased name: "new_york" becomes "New York".
func DisplayName(keyRow string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(keyRow, "_", " "))
}
