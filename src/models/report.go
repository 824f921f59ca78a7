// backend/src/models/report.go
package models

import "time"

// ReportSummary carries the derived statistics stored alongside a
// reconciliation result and returned by the report listing endpoints.
type ReportSummary struct {
	PerfectMatchCount  int     `json:"perfect_match_count"`
	MismatchCount      int     `json:"mismatch_count"`
	UnmatchedCompany1  int     `json:"unmatched_company1_count"`
	UnmatchedCompany2  int     `json:"unmatched_company2_count"`
	DateMismatchCount  int     `json:"date_mismatch_count"`
	InsightCount       int     `json:"insight_count"`
	MatchRate          float64 `json:"match_rate"` // perfect matches over the larger side, as a percentage
	Company1Total      float64 `json:"company1_total"`
	Company2Total      float64 `json:"company2_total"`
	Variance           float64 `json:"variance"`
}

// ReconciliationReport is one stored reconciliation run: the engine result
// kept verbatim as a JSON document plus summary columns for cheap listing.
// Result is nil in list responses and populated when a single report is
// fetched.
type ReconciliationReport struct {
	ID             int64                 `json:"id"`
	UserID         int64                 `json:"user_id"`
	CounterpartyID int64                 `json:"counterparty_id,omitempty"`
	Source         string                `json:"source"` // "upload" or "erp"
	DateFormat1    string                `json:"date_format_1"`
	DateFormat2    string                `json:"date_format_2"`
	Summary        ReportSummary         `json:"summary"`
	Result         *ReconciliationResult `json:"result,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}
