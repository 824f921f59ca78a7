// backend/src/reports/export_test.go
package reports

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/username/ledgerlink/backend/src/models"
)

func parseExport(t *testing.T, result *models.ReconciliationResult) [][]string {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, result); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	return rows
}

func TestWriteCSVSections(t *testing.T) {
	rows := parseExport(t, sampleResult())

	if rows[0][0] != "section" {
		t.Fatalf("missing header row, got %v", rows[0])
	}

	counts := map[string]int{}
	for _, row := range rows[1:] {
		counts[row[0]]++
	}
	if counts["perfect_match"] != 2 {
		t.Errorf("expected 2 perfect_match rows (one per side), got %d", counts["perfect_match"])
	}
	if counts["mismatch"] != 2 {
		t.Errorf("expected 2 mismatch rows, got %d", counts["mismatch"])
	}
	if counts["unmatched"] != 1 {
		t.Errorf("expected 1 unmatched row, got %d", counts["unmatched"])
	}
	if counts["totals"] != 3 {
		t.Errorf("expected 3 totals rows, got %d", counts["totals"])
	}
}

func TestWriteCSVAmountsFixedPrecision(t *testing.T) {
	rows := parseExport(t, sampleResult())

	var variance string
	for _, row := range rows[1:] {
		if row[0] == "totals" && row[9] == "variance" {
			variance = row[4]
		}
	}
	if variance != "15.00" {
		t.Errorf("variance should render with two decimals, got %q", variance)
	}
}

func TestWriteCSVSanitizesFormulaCells(t *testing.T) {
	result := &models.ReconciliationResult{
		PerfectMatches: []models.MatchPair{},
		Mismatches:     []models.MatchPair{},
		UnmatchedItems: models.UnmatchedItems{
			Company1: []models.CanonicalRecord{
				{TransactionNumber: "=SUM(A1:A9)", Reference: "@cmd", Amount: 1},
			},
			Company2: []models.CanonicalRecord{},
		},
	}

	rows := parseExport(t, result)

	var row []string
	for _, r := range rows[1:] {
		if r[0] == "unmatched" {
			row = r
		}
	}
	if row == nil {
		t.Fatal("unmatched row missing")
	}
	if !strings.HasPrefix(row[2], "'=") {
		t.Errorf("formula cell must be defused, got %q", row[2])
	}
	if !strings.HasPrefix(row[8], "'@") {
		t.Errorf("@-cell must be defused, got %q", row[8])
	}
}

func TestWriteCSVDateMismatchNote(t *testing.T) {
	result := sampleResult()
	result.DateMismatches = []models.DateMismatch{
		{
			Company1:       result.PerfectMatches[0].Company1,
			Company2:       result.PerfectMatches[0].Company2,
			MismatchType:   "transaction_date",
			Company1Date:   "2024-01-01",
			Company2Date:   "2024-01-05",
			DaysDifference: 4,
		},
	}

	rows := parseExport(t, result)

	found := false
	for _, row := range rows[1:] {
		if row[0] == "date_mismatch" {
			found = true
			if !strings.Contains(row[9], "4 days") {
				t.Errorf("note should carry the day distance, got %q", row[9])
			}
		}
	}
	if !found {
		t.Error("date_mismatch section missing")
	}
}
