// backend/src/reports/export.go
package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"

	"github.com/username/ledgerlink/backend/src/models"
	"github.com/username/ledgerlink/backend/src/security/validation"
)

var exportHeader = []string{
	"section", "side", "transaction_number", "type", "amount",
	"date", "due_date", "status", "reference", "note",
}

// Export sections, in output order.
const (
	sectionPerfectMatch = "perfect_match"
	sectionMismatch     = "mismatch"
	sectionUnmatched    = "unmatched"
	sectionDateMismatch = "date_mismatch"
	sectionInsight      = "historical_insight"
	sectionTotals       = "totals"
)

// WriteCSV renders a result as a flat CSV document: one row per record
// occurrence, grouped by section. Every field that originates in an uploaded
// file is sanitized against spreadsheet formula injection before it is
// written.
func WriteCSV(w io.Writer, result *models.ReconciliationResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, pair := range result.PerfectMatches {
		writeRecordRow(cw, sectionPerfectMatch, "company1", pair.Company1, "")
		writeRecordRow(cw, sectionPerfectMatch, "company2", pair.Company2, "")
	}

	for _, pair := range result.Mismatches {
		note := fmt.Sprintf("amount difference %s", formatAmount(amountGap(pair.Company1, pair.Company2)))
		writeRecordRow(cw, sectionMismatch, "company1", pair.Company1, note)
		writeRecordRow(cw, sectionMismatch, "company2", pair.Company2, note)
	}

	for _, rec := range result.UnmatchedItems.Company1 {
		writeRecordRow(cw, sectionUnmatched, "company1", rec, "")
	}
	for _, rec := range result.UnmatchedItems.Company2 {
		writeRecordRow(cw, sectionUnmatched, "company2", rec, "")
	}

	for _, dm := range result.DateMismatches {
		note := fmt.Sprintf("%s differs by %d days (%s vs %s)", dm.MismatchType, dm.DaysDifference, dm.Company1Date, dm.Company2Date)
		writeRecordRow(cw, sectionDateMismatch, "company1", dm.Company1, note)
	}

	for _, hi := range result.HistoricalInsights {
		writeRecordRow(cw, sectionInsight, "company2", hi.APItem, hi.Insight.Message)
	}

	totalsRows := [][]string{
		{sectionTotals, "company1", "", "", formatAmount(result.Totals.Company1Total), "", "", "", "", ""},
		{sectionTotals, "company2", "", "", formatAmount(result.Totals.Company2Total), "", "", "", "", ""},
		{sectionTotals, "", "", "", formatAmount(result.Totals.Variance), "", "", "", "", "variance"},
	}
	for _, row := range totalsRows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write totals row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV export: %w", err)
	}
	return nil
}

func writeRecordRow(cw *csv.Writer, section, side string, rec models.CanonicalRecord, note string) {
	// csv.Writer defers errors to Flush; Error() surfaces them in WriteCSV.
	_ = cw.Write([]string{
		section,
		side,
		cleanCell(rec.TransactionNumber),
		cleanCell(rec.Type),
		formatAmount(rec.Amount),
		rec.Date,
		rec.DueDate,
		cleanCell(rec.Status),
		cleanCell(rec.Reference),
		cleanCell(note),
	})
}

// cleanCell strips unprintable characters and defuses leading formula
// characters in user-originated values.
func cleanCell(s string) string {
	return validation.SanitizeForFormulaInjection(validation.StripUnprintable(s))
}

func formatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

func amountGap(a, b models.CanonicalRecord) float64 {
	return math.Abs(math.Abs(a.Amount) - math.Abs(b.Amount))
}
