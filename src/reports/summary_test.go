// backend/src/reports/summary_test.go
package reports

import (
	"testing"

	"github.com/username/ledgerlink/backend/src/models"
)

func sampleResult() *models.ReconciliationResult {
	return &models.ReconciliationResult{
		PerfectMatches: []models.MatchPair{
			{
				Company1: models.CanonicalRecord{TransactionNumber: "INV-1", Amount: 100, Date: "2024-01-01"},
				Company2: models.CanonicalRecord{TransactionNumber: "INV-1", Amount: -100, Date: "2024-01-01"},
			},
		},
		Mismatches: []models.MatchPair{
			{
				Company1: models.CanonicalRecord{TransactionNumber: "INV-2", Amount: 50},
				Company2: models.CanonicalRecord{TransactionNumber: "INV-2", Amount: -45},
			},
		},
		UnmatchedItems: models.UnmatchedItems{
			Company1: []models.CanonicalRecord{{TransactionNumber: "INV-3", Amount: 10}},
			Company2: []models.CanonicalRecord{},
		},
		HistoricalInsights: []models.HistoricalInsight{},
		DateMismatches:     []models.DateMismatch{},
		Totals:             models.Totals{Company1Total: 160, Company2Total: -145, Variance: 15},
	}
}

func TestBuildSummaryCounts(t *testing.T) {
	summary := BuildSummary(sampleResult())

	if summary.PerfectMatchCount != 1 || summary.MismatchCount != 1 {
		t.Errorf("wrong pair counts: %+v", summary)
	}
	if summary.UnmatchedCompany1 != 1 || summary.UnmatchedCompany2 != 0 {
		t.Errorf("wrong unmatched counts: %+v", summary)
	}
	if summary.Company1Total != 160 || summary.Variance != 15 {
		t.Errorf("totals not carried through: %+v", summary)
	}
}

func TestBuildSummaryMatchRate(t *testing.T) {
	// Side1 has 3 records, side2 has 2; one perfect match against the larger
	// side gives 33.33.
	summary := BuildSummary(sampleResult())
	if summary.MatchRate != 33.33 {
		t.Errorf("match rate = %v, expected 33.33", summary.MatchRate)
	}
}

func TestBuildSummaryEmptyResult(t *testing.T) {
	summary := BuildSummary(&models.ReconciliationResult{})
	if summary.MatchRate != 0 {
		t.Errorf("empty result must give a zero match rate, got %v", summary.MatchRate)
	}
	if summary.PerfectMatchCount != 0 || summary.UnmatchedCompany1 != 0 {
		t.Errorf("empty result must give zero counts: %+v", summary)
	}
}
