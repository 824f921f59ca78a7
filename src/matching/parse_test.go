// backend/src/matching/parse_test.go
package matching

import "testing"

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		name     string
		input    any
		expected float64
	}{
		{name: "plain float", input: 123.45, expected: 123.45},
		{name: "integer", input: 250, expected: 250},
		{name: "int64", input: int64(-42), expected: -42},
		{name: "numeric string", input: "123.45", expected: 123.45},
		{name: "currency symbol and separators", input: "$1,234.56", expected: 1234.56},
		{name: "euro symbol", input: "€99.10", expected: 99.10},
		{name: "negative string", input: "-500.25", expected: -500.25},
		{name: "whitespace padded", input: "  42.00  ", expected: 42},
		{name: "empty string", input: "", expected: 0},
		{name: "symbols only", input: "$ ,", expected: 0},
		{name: "garbage", input: "not a number", expected: 0},
		{name: "nil", input: nil, expected: 0},
		{name: "unsupported type", input: []string{"100"}, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAmount(tc.input)
			if got != tc.expected {
				t.Errorf("ParseAmount(%v) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	testCases := []struct {
		name     string
		input    any
		format   string
		expected string
	}{
		{name: "already ISO", input: "2024-01-15", format: "DD/MM/YYYY", expected: "2024-01-15"},
		{name: "ISO with time part", input: "2024-01-15T10:30:00Z", format: "", expected: "2024-01-15"},
		{name: "day first", input: "15/01/2024", format: "DD/MM/YYYY", expected: "2024-01-15"},
		{name: "month first", input: "01/15/2024", format: "MM/DD/YYYY", expected: "2024-01-15"},
		{name: "dashes day first", input: "15-01-2024", format: "DD-MM-YYYY", expected: "2024-01-15"},
		{name: "dotted format by substitution", input: "15.01.2024", format: "DD.MM.YYYY", expected: "2024-01-15"},
		{name: "serialized epoch", input: "/Date(1704067200000+0000)/", format: "DD/MM/YYYY", expected: "2024-01-01"},
		{name: "serialized epoch no offset", input: "/Date(1704067200000)/", format: "", expected: "2024-01-01"},
		{name: "fallback long form", input: "15 January 2024", format: "DD/MM/YYYY", expected: "2024-01-15"},
		{name: "fallback month first when day invalid", input: "01/13/2024", format: "DD/MM/YYYY", expected: "2024-01-13"},
		{name: "empty string", input: "", format: "DD/MM/YYYY", expected: ""},
		{name: "nil", input: nil, format: "DD/MM/YYYY", expected: ""},
		{name: "unparseable", input: "soon", format: "DD/MM/YYYY", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDate(tc.input, tc.format)
			if got != tc.expected {
				t.Errorf("ParseDate(%v, %q) = %q, expected %q", tc.input, tc.format, got, tc.expected)
			}
		})
	}
}

// Normalized output fed back in must come out unchanged regardless of the
// caller's format choice.
func TestParseDateRoundTrip(t *testing.T) {
	for _, format := range []string{"", "DD/MM/YYYY", "MM/DD/YYYY", "YYYY-MM-DD"} {
		got := ParseDate("2024-06-30", format)
		if got != "2024-06-30" {
			t.Errorf("round trip with format %q changed the value: got %q", format, got)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     string
		expected int
		ok       bool
	}{
		{name: "same day", a: "2024-01-01", b: "2024-01-01", expected: 0, ok: true},
		{name: "two days apart", a: "2024-01-01", b: "2024-01-03", expected: 2, ok: true},
		{name: "order does not matter", a: "2024-01-03", b: "2024-01-01", expected: 2, ok: true},
		{name: "across a month boundary", a: "2024-01-30", b: "2024-02-02", expected: 3, ok: true},
		{name: "empty side", a: "", b: "2024-01-01", expected: 0, ok: false},
		{name: "malformed side", a: "2024-01-01", b: "yesterday", expected: 0, ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := daysBetween(tc.a, tc.b)
			if got != tc.expected || ok != tc.ok {
				t.Errorf("daysBetween(%q, %q) = (%d, %v), expected (%d, %v)", tc.a, tc.b, got, ok, tc.expected, tc.ok)
			}
		})
	}
}
