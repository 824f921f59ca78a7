// backend/src/reports/summary.go

// Package reports derives stored summaries and user-facing exports from
// engine results. Nothing here re-runs matching; the result document is the
// single source of truth.
package reports

import (
	"github.com/username/ledgerlink/backend/src/models"
	"github.com/username/ledgerlink/backend/src/utils"
)

// BuildSummary derives the listing statistics from an engine result. Side
// sizes are reconstructed from the partition buckets, and the match rate
// relates perfect matches to the larger side so a short counterparty file
// cannot inflate the score.
func BuildSummary(result *models.ReconciliationResult) models.ReportSummary {
	side1 := len(result.PerfectMatches) + len(result.Mismatches) + len(result.UnmatchedItems.Company1)
	side2 := len(result.PerfectMatches) + len(result.Mismatches) + len(result.UnmatchedItems.Company2)

	rate := 0.0
	if larger := utils.MaxInt(side1, side2); larger > 0 {
		rate = utils.RoundFloat(float64(len(result.PerfectMatches))/float64(larger)*100, 2)
	}

	return models.ReportSummary{
		PerfectMatchCount: len(result.PerfectMatches),
		MismatchCount:     len(result.Mismatches),
		UnmatchedCompany1: len(result.UnmatchedItems.Company1),
		UnmatchedCompany2: len(result.UnmatchedItems.Company2),
		DateMismatchCount: len(result.DateMismatches),
		InsightCount:      len(result.HistoricalInsights),
		MatchRate:         rate,
		Company1Total:     result.Totals.Company1Total,
		Company2Total:     result.Totals.Company2Total,
		Variance:          result.Totals.Variance,
	}
}
