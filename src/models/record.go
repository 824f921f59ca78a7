// backend/src/models/record.go
package models

// RawRecord is one row of ledger data exactly as a parser or ERP connector
// delivered it: header-derived keys mapped to raw cell values. Sources
// disagree on column names ("transactionNumber", "invoice_number", "id", ...),
// so nothing downstream reads a RawRecord directly; the matching engine
// normalizes first.
type RawRecord map[string]any

// CanonicalRecord is the normalized invoice shape used throughout matching
// and reporting. Every CanonicalRecord comes from exactly one RawRecord.
// Normalization is total: values that cannot be parsed degrade to zero or
// empty instead of failing the run.
type CanonicalRecord struct {
	TransactionNumber string  `json:"transactionNumber"`
	Type              string  `json:"type"`
	Amount            float64 `json:"amount"`
	Date              string  `json:"date"`    // YYYY-MM-DD, empty when unknown
	DueDate           string  `json:"dueDate"` // YYYY-MM-DD, empty when unknown
	Status            string  `json:"status"`
	Reference         string  `json:"reference"`
	PaymentDate       string  `json:"payment_date"`
	IsPaid            bool    `json:"is_paid"`
	IsVoided          bool    `json:"is_voided"`
	IsPartiallyPaid   bool    `json:"is_partially_paid"`
	OriginalAmount    float64 `json:"original_amount"`
	AmountPaid        float64 `json:"amount_paid"`

	// Seq is a synthetic index assigned during normalization, scoped to the
	// dataset the record came from. Unmatched-set bookkeeping removes records
	// by Seq so two structurally identical rows stay distinct.
	Seq int `json:"-"`
}
