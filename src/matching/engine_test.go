// backend/src/matching/engine_test.go
package matching

import (
	"math"
	"reflect"
	"testing"

	"github.com/username/ledgerlink/backend/src/models"
)

func mustMatch(t *testing.T, engine *Engine, data1, data2, historical []models.RawRecord) *models.ReconciliationResult {
	t.Helper()
	result, err := engine.MatchRecords(data1, data2, "DD/MM/YYYY", "DD/MM/YYYY", historical)
	if err != nil {
		t.Fatalf("MatchRecords returned error: %v", err)
	}
	return result
}

func TestMatchRecordsPerfectMatch(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "INV001", "amount": 100.0, "date": "01/01/2024"},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "INV001", "amount": -100.0, "date": "01/01/2024"},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.PerfectMatches) != 1 {
		t.Fatalf("expected 1 perfect match, got %d", len(result.PerfectMatches))
	}
	if len(result.Mismatches) != 0 {
		t.Errorf("expected 0 mismatches, got %d", len(result.Mismatches))
	}
	if len(result.UnmatchedItems.Company1) != 0 || len(result.UnmatchedItems.Company2) != 0 {
		t.Errorf("expected no unmatched items, got %d / %d",
			len(result.UnmatchedItems.Company1), len(result.UnmatchedItems.Company2))
	}
	if result.Totals.Variance != 0 {
		t.Errorf("expected variance 0, got %v", result.Totals.Variance)
	}
}

func TestMatchRecordsDateMismatchAnnotation(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "INV001", "amount": 100.0, "date": "01/01/2024"},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "INV001", "amount": -100.0, "date": "03/01/2024"},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.PerfectMatches) != 1 {
		t.Fatalf("pair must stay a perfect match, got %d perfect matches", len(result.PerfectMatches))
	}
	if len(result.DateMismatches) != 1 {
		t.Fatalf("expected 1 date mismatch annotation, got %d", len(result.DateMismatches))
	}
	dm := result.DateMismatches[0]
	if dm.MismatchType != "transaction_date" {
		t.Errorf("expected mismatchType transaction_date, got %q", dm.MismatchType)
	}
	if dm.DaysDifference != 2 {
		t.Errorf("expected daysDifference 2, got %d", dm.DaysDifference)
	}
	if dm.Company1Date != "2024-01-01" || dm.Company2Date != "2024-01-03" {
		t.Errorf("annotation carries wrong dates: %q / %q", dm.Company1Date, dm.Company2Date)
	}
}

func TestMatchRecordsWithinDateTolerance(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "INV001", "amount": 100.0, "date": "01/01/2024"},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "INV001", "amount": -100.0, "date": "02/01/2024"},
	}

	result := mustMatch(t, engine, data1, data2, nil)
	if len(result.DateMismatches) != 0 {
		t.Errorf("one day apart is within tolerance, got %d annotations", len(result.DateMismatches))
	}
}

func TestMatchRecordsAmountOutsideTolerance(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "INV001", "amount": 100.0},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "INV001", "amount": -95.0},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.PerfectMatches) != 0 {
		t.Errorf("expected no perfect matches, got %d", len(result.PerfectMatches))
	}
	if len(result.Mismatches) != 1 {
		t.Fatalf("expected 1 mismatch, got %d", len(result.Mismatches))
	}
	if len(result.UnmatchedItems.Company1) != 0 || len(result.UnmatchedItems.Company2) != 0 {
		t.Error("a mismatched pair still consumes both records")
	}
}

func TestMatchRecordsAmountTolerance(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	// Within a cent, opposite signs.
	data1 := []models.RawRecord{{"transactionNumber": "INV001", "amount": 100.004}}
	data2 := []models.RawRecord{{"transactionNumber": "INV001", "amount": -100.0}}

	result := mustMatch(t, engine, data1, data2, nil)
	if len(result.PerfectMatches) != 1 {
		t.Errorf("amounts within 0.01 must match perfectly, got %d perfect matches", len(result.PerfectMatches))
	}
}

func TestMatchRecordsUnmatched(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "INV002", "amount": 200.0},
	}

	result := mustMatch(t, engine, data1, nil, nil)

	if len(result.PerfectMatches) != 0 {
		t.Errorf("expected no perfect matches, got %d", len(result.PerfectMatches))
	}
	if len(result.UnmatchedItems.Company1) != 1 {
		t.Errorf("expected 1 unmatched company1 item, got %d", len(result.UnmatchedItems.Company1))
	}
	if len(result.UnmatchedItems.Company2) != 0 {
		t.Errorf("expected no unmatched company2 items, got %d", len(result.UnmatchedItems.Company2))
	}
}

func TestMatchRecordsCreditNoteReferencePath(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "CN-001", "type": "ACCRECCREDIT", "amount": -50.0, "reference": "INV-010"},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "INV-010", "type": "ACCPAYCREDIT", "amount": 50.0, "reference": "INV-010"},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.PerfectMatches) != 1 {
		t.Fatalf("credit notes with equal references must pair, got %d perfect matches", len(result.PerfectMatches))
	}
	pair := result.PerfectMatches[0]
	if pair.Company1.TransactionNumber != "CN-001" || pair.Company2.TransactionNumber != "INV-010" {
		t.Errorf("wrong pair: %q / %q", pair.Company1.TransactionNumber, pair.Company2.TransactionNumber)
	}
}

func TestMatchRecordsNumberPrecedenceOverReference(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	// One candidate shares the number with a wrong amount, another only the
	// reference with the right amount. Number equality must win and produce a
	// mismatch rather than letting the reference candidate through.
	data1 := []models.RawRecord{
		{"transactionNumber": "INV-100", "amount": 100.0, "reference": "PO-1"},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "INV-100", "amount": -90.0, "reference": "other"},
		{"transactionNumber": "INV-999", "amount": -100.0, "reference": "PO-1"},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.Mismatches) != 1 {
		t.Fatalf("expected 1 mismatch, got %d (perfect: %d)", len(result.Mismatches), len(result.PerfectMatches))
	}
	if result.Mismatches[0].Company2.TransactionNumber != "INV-100" {
		t.Errorf("number-equality candidates must suppress reference candidates, paired with %q",
			result.Mismatches[0].Company2.TransactionNumber)
	}
}

func TestMatchRecordsDisambiguatesByAmount(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	// Two candidates share the reference; only one amount lines up.
	data1 := []models.RawRecord{
		{"amount": 100.0, "reference": "REF-1"},
	}
	data2 := []models.RawRecord{
		{"amount": -200.0, "reference": "REF-1"},
		{"amount": -100.0, "reference": "REF-1"},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.PerfectMatches) != 1 {
		t.Fatalf("expected disambiguation to find the single exact candidate, got %d perfect matches", len(result.PerfectMatches))
	}
	if result.PerfectMatches[0].Company2.Amount != -100.0 {
		t.Errorf("paired with the wrong candidate: amount %v", result.PerfectMatches[0].Company2.Amount)
	}
	if len(result.UnmatchedItems.Company2) != 1 {
		t.Errorf("the losing candidate must stay unmatched, got %d", len(result.UnmatchedItems.Company2))
	}
}

func TestMatchRecordsScoringFallback(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	// Two candidates share the reference and neither amount lines up, so no
	// exact resolution exists. The one with the matching date must win the
	// score and surface as the mismatch partner.
	data1 := []models.RawRecord{
		{"amount": 100.0, "reference": "REF-2", "date": "10/01/2024"},
	}
	data2 := []models.RawRecord{
		{"amount": -70.0, "reference": "REF-2", "date": "01/06/2024"},
		{"amount": -80.0, "reference": "REF-2", "date": "10/01/2024"},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.Mismatches) != 1 {
		t.Fatalf("expected 1 mismatch, got %d", len(result.Mismatches))
	}
	if result.Mismatches[0].Company2.Amount != -80.0 {
		t.Errorf("best-scoring candidate should win, paired amount %v", result.Mismatches[0].Company2.Amount)
	}
}

func TestMatchRecordsPartialPaymentNeverPerfect(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "INV-300", "amount": 100.0},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "INV-300", "amount": -100.0, "is_partially_paid": true},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.PerfectMatches) != 0 {
		t.Errorf("a partially paid record must not match perfectly, got %d", len(result.PerfectMatches))
	}
	if len(result.Mismatches) != 1 {
		t.Errorf("expected the pair to surface as a mismatch, got %d", len(result.Mismatches))
	}
}

func TestMatchRecordsDuplicateRowsStayDistinct(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	// Structurally identical rows. Removal tracks the synthetic sequence
	// index, so consuming one copy must not consume the other.
	data1 := []models.RawRecord{
		{"transactionNumber": "INV-400", "amount": 10.0},
		{"transactionNumber": "INV-400", "amount": 10.0},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "INV-400", "amount": -10.0},
		{"transactionNumber": "INV-400", "amount": -10.0},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.PerfectMatches) != 2 {
		t.Fatalf("expected both company1 rows to pair, got %d", len(result.PerfectMatches))
	}
	if len(result.UnmatchedItems.Company1) != 0 {
		t.Errorf("company1 should be fully consumed, got %d left", len(result.UnmatchedItems.Company1))
	}
	// Candidates are found against the full company2 set, so both rows pair
	// with the first copy and the second copy survives as unmatched.
	if len(result.UnmatchedItems.Company2) != 1 {
		t.Errorf("expected exactly one surviving duplicate on company2, got %d", len(result.UnmatchedItems.Company2))
	}
}

func TestMatchRecordsTotalsAndVariance(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "A", "amount": 100.0},
		{"transactionNumber": "B", "amount": 50.0},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "A", "amount": -100.0},
		{"transactionNumber": "C", "amount": -30.0},
	}

	result := mustMatch(t, engine, data1, data2, nil)

	if result.Totals.Company1Total != 150 {
		t.Errorf("company1 total = %v, expected 150", result.Totals.Company1Total)
	}
	if result.Totals.Company2Total != -130 {
		t.Errorf("company2 total = %v, expected -130", result.Totals.Company2Total)
	}
	// |150 - |-130|| = 20
	if math.Abs(result.Totals.Variance-20) > 1e-9 {
		t.Errorf("variance = %v, expected 20", result.Totals.Variance)
	}
}

func TestMatchRecordsDeterministic(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "INV-1", "amount": 10.0, "date": "01/02/2024"},
		{"amount": 25.0, "reference": "REF-9", "date": "05/02/2024"},
		{"transactionNumber": "INV-3", "amount": -5.0, "type": "ACCRECCREDIT", "reference": "INV-1"},
	}
	data2 := []models.RawRecord{
		{"transactionNumber": "INV-1", "amount": -10.0, "date": "01/02/2024"},
		{"amount": -25.5, "reference": "REF-9", "date": "06/02/2024"},
		{"amount": -19.0, "reference": "REF-9", "date": "05/02/2024"},
	}

	first := mustMatch(t, engine, data1, data2, nil)
	second := mustMatch(t, engine, data1, data2, nil)

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical input produced different results")
	}
}

func TestMatchRecordsEmptyInputs(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	result := mustMatch(t, engine, nil, nil, nil)

	if result.PerfectMatches == nil || result.Mismatches == nil ||
		result.UnmatchedItems.Company1 == nil || result.UnmatchedItems.Company2 == nil ||
		result.HistoricalInsights == nil || result.DateMismatches == nil {
		t.Error("result slices must be non-nil even for empty inputs")
	}
	if result.Totals.Company1Total != 0 || result.Totals.Variance != 0 {
		t.Errorf("empty inputs should produce zero totals, got %+v", result.Totals)
	}
}

func TestMatchRecordsDefaultDateFormat(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	data1 := []models.RawRecord{
		{"transactionNumber": "INV-5", "amount": 10.0, "date": "31/01/2024"},
	}

	result, err := engine.MatchRecords(data1, nil, "", "", nil)
	if err != nil {
		t.Fatalf("MatchRecords returned error: %v", err)
	}
	if result.UnmatchedItems.Company1[0].Date != "2024-01-31" {
		t.Errorf("empty format must default to day-first parsing, got %q", result.UnmatchedItems.Company1[0].Date)
	}
}

func TestMatchRecordsEmptyKeysNeverLink(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	// Neither side has a transaction number or reference; nothing should
	// pair, no matter how well the amounts agree.
	data1 := []models.RawRecord{{"amount": 100.0}}
	data2 := []models.RawRecord{{"amount": -100.0}}

	result := mustMatch(t, engine, data1, data2, nil)

	if len(result.PerfectMatches) != 0 || len(result.Mismatches) != 0 {
		t.Errorf("records without identity keys must stay unmatched, got %d perfect / %d mismatched",
			len(result.PerfectMatches), len(result.Mismatches))
	}
	if len(result.UnmatchedItems.Company1) != 1 || len(result.UnmatchedItems.Company2) != 1 {
		t.Error("both records should remain unmatched")
	}
}
