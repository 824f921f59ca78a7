// backend/src/models/result.go
package models

// MatchPair links one record from each side of a reconciliation. Company1 is
// the uploader's ledger (receivables view), Company2 the counterparty's
// (payables view).
type MatchPair struct {
	Company1 CanonicalRecord `json:"company1"`
	Company2 CanonicalRecord `json:"company2"`
}

// DateMismatch annotates a perfect match whose transaction or due dates sit
// more than the tolerated distance apart. The pair itself stays a perfect
// match; this is advisory only.
type DateMismatch struct {
	Company1       CanonicalRecord `json:"company1"`
	Company2       CanonicalRecord `json:"company2"`
	MismatchType   string          `json:"mismatchType"` // "transaction_date" or "due_date"
	Company1Date   string          `json:"company1Date"`
	Company2Date   string          `json:"company2Date"`
	DaysDifference int             `json:"daysDifference"`
}

// Insight classifies what a historical dataset says about an unmatched item.
type Insight struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "info", "warning" or "error"
}

// HistoricalInsight ties an unmatched payables-side item to its most relevant
// historical counterpart and the resulting classification.
type HistoricalInsight struct {
	APItem          CanonicalRecord `json:"apItem"`
	HistoricalMatch CanonicalRecord `json:"historicalMatch"`
	Insight         Insight         `json:"insight"`
}

// UnmatchedItems holds the per-side leftovers after a matching pass.
type UnmatchedItems struct {
	Company1 []CanonicalRecord `json:"company1"`
	Company2 []CanonicalRecord `json:"company2"`
}

// Totals aggregates each side's full sum and the variance between the two.
// Variance compares company1's total against the absolute value of company2's
// total: the same invoice is positive on the receivables side and negative on
// the payables side.
type Totals struct {
	Company1Total float64 `json:"company1Total"`
	Company2Total float64 `json:"company2Total"`
	Variance      float64 `json:"variance"`
}

// ReconciliationResult is the matching engine's complete output for one run.
// Slice fields are always non-nil so the JSON rendering is stable ([] rather
// than null).
type ReconciliationResult struct {
	PerfectMatches     []MatchPair         `json:"perfectMatches"`
	Mismatches         []MatchPair         `json:"mismatches"`
	UnmatchedItems     UnmatchedItems      `json:"unmatchedItems"`
	HistoricalInsights []HistoricalInsight `json:"historicalInsights"`
	DateMismatches     []DateMismatch      `json:"dateMismatches"`
	Totals             Totals              `json:"totals"`
}
