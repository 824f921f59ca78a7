// backend/src/matching/parse.go
package matching

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// serializedEpochRe matches the serialized epoch format some ERP APIs emit
// for dates, e.g. "/Date(1704067200000+0000)/".
var serializedEpochRe = regexp.MustCompile(`/Date\((\d+)([+-]\d{4})?\)/`)

// amountCleanRe strips everything that cannot be part of a float: currency
// symbols, thousand separators, stray whitespace.
var amountCleanRe = regexp.MustCompile(`[^0-9.\-]`)

// ParseAmount coerces a raw cell value into a float64. Numeric values pass
// through unchanged; strings are cleaned of currency noise first. Anything
// unparseable yields 0, so a single bad cell never aborts a reconciliation.
func ParseAmount(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		cleaned := amountCleanRe.ReplaceAllString(strings.TrimSpace(v), "")
		if cleaned == "" {
			return 0
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// formatLayouts maps the date-format tokens accepted at the API boundary to
// Go reference layouts.
var formatLayouts = map[string]string{
	"DD/MM/YYYY": "02/01/2006",
	"MM/DD/YYYY": "01/02/2006",
	"YYYY-MM-DD": "2006-01-02",
	"DD-MM-YYYY": "02-01-2006",
	"MM-DD-YYYY": "01-02-2006",
	"DD.MM.YYYY": "02.01.2006",
	"YYYY/MM/DD": "2006/01/02",
}

// fallbackLayouts is tried in order when neither the epoch form, an ISO
// prefix, nor the caller-supplied format matches the value.
var fallbackLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// layoutFor resolves a format token to a Go layout. Unknown tokens are
// converted by substitution so a format like "YYYY.MM.DD" still works.
func layoutFor(format string) string {
	if layout, ok := formatLayouts[format]; ok {
		return layout
	}
	r := strings.NewReplacer("YYYY", "2006", "YY", "06", "MM", "01", "DD", "02")
	return r.Replace(format)
}

// ParseDate normalizes a raw date value to YYYY-MM-DD. It understands the
// serialized epoch encoding, ISO-prefixed strings (kept as-is, time part
// dropped), the caller-supplied format, and a set of permissive fallback
// layouts, tried in that order. Returns "" when nothing matches; it never
// fails the run.
func ParseDate(value any, format string) string {
	var s string
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(isoDate)
	case string:
		s = strings.TrimSpace(v)
	default:
		return ""
	}
	if s == "" {
		return ""
	}

	if m := serializedEpochRe.FindStringSubmatch(s); m != nil {
		if millis, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return time.UnixMilli(millis).UTC().Format(isoDate)
		}
	}

	if isISOPrefixed(s) {
		return s[:10]
	}

	if format != "" {
		if t, err := time.Parse(layoutFor(format), s); err == nil {
			return t.Format(isoDate)
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate)
		}
	}
	return ""
}

// isISOPrefixed reports whether s starts with a literal YYYY-MM-DD date.
func isISOPrefixed(s string) bool {
	if len(s) < 10 {
		return false
	}
	for i := 0; i < 10; i++ {
		c := s[i]
		if i == 4 || i == 7 {
			if c != '-' {
				return false
			}
		} else if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// daysBetween returns the absolute whole-day distance between two normalized
// YYYY-MM-DD strings. ok is false when either side is empty or malformed.
func daysBetween(a, b string) (int, bool) {
	ta, errA := time.Parse(isoDate, a)
	tb, errB := time.Parse(isoDate, b)
	if errA != nil || errB != nil {
		return 0, false
	}
	days := int(math.Round(tb.Sub(ta).Hours() / 24))
	if days < 0 {
		days = -days
	}
	return days, true
}
