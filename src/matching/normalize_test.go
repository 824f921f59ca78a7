// backend/src/matching/normalize_test.go
package matching

import (
	"testing"

	"github.com/username/ledgerlink/backend/src/models"
)

func TestNormalizeFieldKeysAliasResolution(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	raw := []models.RawRecord{
		{"invoice_number": "INV-001", "invoiceDate": "01/01/2024", "amount": "100"},
		{"invoice_number": "INV-002", "invoiceDate": "02/01/2024", "amount": "200"},
	}

	normalized := engine.NormalizeData(raw, "DD/MM/YYYY")
	if len(normalized) != 2 {
		t.Fatalf("expected 2 records, got %d", len(normalized))
	}
	if normalized[0].TransactionNumber != "INV-001" {
		t.Errorf("expected invoice_number alias to resolve, got transactionNumber %q", normalized[0].TransactionNumber)
	}
	if normalized[1].Date != "2024-01-02" {
		t.Errorf("expected invoiceDate alias to resolve, got date %q", normalized[1].Date)
	}
}

func TestNormalizeFieldKeysDoesNotMutateInput(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	raw := []models.RawRecord{
		{"id": "7", "amount": 10.0},
	}
	engine.NormalizeData(raw, "DD/MM/YYYY")

	if _, ok := raw[0]["transactionNumber"]; ok {
		t.Error("normalization wrote a canonical key back onto the caller's record")
	}
	if len(raw[0]) != 2 {
		t.Errorf("caller's record changed size: %v", raw[0])
	}
}

func TestNormalizeFieldKeysPerRecordFallback(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	// Ragged input: the first record carries the canonical key, a later one
	// only the alias. The canonical value must win where present and the
	// alias must still resolve per record.
	raw := []models.RawRecord{
		{"transactionNumber": "INV-001", "id": "ignored", "amount": 1.0},
		{"id": "INV-002", "amount": 2.0},
	}
	normalized := engine.NormalizeData(raw, "DD/MM/YYYY")
	if normalized[0].TransactionNumber != "INV-001" {
		t.Errorf("canonical key should win over alias, got %q", normalized[0].TransactionNumber)
	}
	if normalized[1].TransactionNumber != "INV-002" {
		t.Errorf("alias should resolve per record, got %q", normalized[1].TransactionNumber)
	}
}

func TestNormalizeDataFlagsAndDefaults(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	raw := []models.RawRecord{
		{
			"transactionNumber": "INV-010",
			"amount":            "150.00",
			"status":            "PAID",
			"payment_date":      "2024-03-01",
		},
		{
			"transactionNumber": "INV-011",
			"amount":            "-80",
			"is_partially_paid": true,
			"original_amount":   "-100",
			"amount_paid":       "20",
		},
		{
			"transactionNumber": "INV-012",
			"amount":            "60",
			"is_voided":         "true",
		},
	}
	normalized := engine.NormalizeData(raw, "DD/MM/YYYY")

	if !normalized[0].IsPaid {
		t.Error("status PAID should set is_paid")
	}
	if normalized[0].PaymentDate != "2024-03-01" {
		t.Errorf("payment_date not carried through: %q", normalized[0].PaymentDate)
	}
	if normalized[0].OriginalAmount != 150 {
		t.Errorf("original_amount should default to amount, got %v", normalized[0].OriginalAmount)
	}

	if !normalized[1].IsPartiallyPaid {
		t.Error("is_partially_paid flag lost")
	}
	if normalized[1].OriginalAmount != -100 || normalized[1].AmountPaid != 20 {
		t.Errorf("partial payment amounts wrong: original %v, paid %v", normalized[1].OriginalAmount, normalized[1].AmountPaid)
	}

	if !normalized[2].IsVoided {
		t.Error("string \"true\" should set is_voided")
	}

	for i, r := range normalized {
		if r.Seq != i {
			t.Errorf("record %d carries seq %d", i, r.Seq)
		}
	}
}

func TestNormalizeDataNullDatesBecomeEmpty(t *testing.T) {
	engine := NewEngine(DefaultProfile())

	raw := []models.RawRecord{
		{"transactionNumber": "INV-001", "amount": 5.0, "date": nil, "dueDate": "not a date"},
	}
	normalized := engine.NormalizeData(raw, "DD/MM/YYYY")
	if normalized[0].Date != "" || normalized[0].DueDate != "" {
		t.Errorf("unparseable dates should normalize to empty, got %q / %q", normalized[0].Date, normalized[0].DueDate)
	}
}

func TestNormalizeDataExtraAliases(t *testing.T) {
	profile := DefaultProfile()
	profile.ExtraAliases = map[string][]string{"transactionNumber": {"doc_no"}}
	engine := NewEngine(profile)

	raw := []models.RawRecord{
		{"doc_no": "DOC-9", "amount": 1.0},
	}
	normalized := engine.NormalizeData(raw, "DD/MM/YYYY")
	if normalized[0].TransactionNumber != "DOC-9" {
		t.Errorf("profile alias not applied, got %q", normalized[0].TransactionNumber)
	}
}

func TestIsCreditNote(t *testing.T) {
	testCases := []struct {
		name     string
		record   models.CanonicalRecord
		expected bool
	}{
		{name: "receivable code", record: models.CanonicalRecord{Type: "ACCRECCREDIT", Amount: 50}, expected: true},
		{name: "payable code", record: models.CanonicalRecord{Type: "ACCPAYCREDIT", Amount: 50}, expected: true},
		{name: "free text", record: models.CanonicalRecord{Type: "Credit Note", Amount: 50}, expected: true},
		{name: "negative amount only", record: models.CanonicalRecord{Type: "INVOICE", Amount: -10}, expected: true},
		{name: "plain invoice", record: models.CanonicalRecord{Type: "ACCREC", Amount: 100}, expected: false},
		{name: "no signals", record: models.CanonicalRecord{Amount: 1}, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCreditNote(tc.record); got != tc.expected {
				t.Errorf("IsCreditNote(%+v) = %v, expected %v", tc.record, got, tc.expected)
			}
		})
	}
}
