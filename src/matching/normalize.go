// backend/src/matching/normalize.go
package matching

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/username/ledgerlink/backend/src/models"
)

// Literal status values some ledgers use instead of boolean flags.
const (
	statusPaid   = "PAID"
	statusVoided = "VOIDED"
	statusDraft  = "DRAFT"
)

// canonicalFields lists the logical columns the engine resolves through
// aliases, in resolution order: the canonical key itself first, then each
// known alias. Profile.ExtraAliases appends to these lists.
var canonicalFields = []struct {
	key     string
	aliases []string
}{
	{key: "transactionNumber", aliases: []string{"id", "invoice_number"}},
	{key: "date", aliases: []string{"invoiceDate"}},
	{key: "dueDate", aliases: nil},
	{key: "type", aliases: nil},
}

// normalizeFieldKeys returns a deep-enough copy of raw in which alias columns
// are mirrored under their canonical keys. Which alias a dataset uses is
// decided by sampling the first record (column sets are homogeneous within
// one upload), then applied to every record that is missing the canonical
// key. The input slice and its maps are never mutated.
func (e *Engine) normalizeFieldKeys(raw []models.RawRecord) []models.RawRecord {
	if len(raw) == 0 {
		return nil
	}
	out := make([]models.RawRecord, len(raw))
	for i, rec := range raw {
		copied := make(models.RawRecord, len(rec)+len(canonicalFields))
		for k, v := range rec {
			copied[k] = v
		}
		out[i] = copied
	}

	first := out[0]
	for key, lookups := range e.fieldKeys {
		if _, ok := first[key]; ok {
			continue
		}
		alias := ""
		for _, candidate := range lookups[1:] {
			if _, ok := first[candidate]; ok {
				alias = candidate
				break
			}
		}
		if alias == "" {
			continue
		}
		for _, rec := range out {
			if _, ok := rec[key]; ok {
				continue
			}
			if v, ok := rec[alias]; ok {
				rec[key] = v
			}
		}
	}
	return out
}

// NormalizeData converts raw rows into canonical records using dateFormat for
// every date column. Normalization is total: a value that cannot be parsed
// becomes zero or empty rather than failing the run, and the returned slice
// always has one entry per input row.
func (e *Engine) NormalizeData(raw []models.RawRecord, dateFormat string) []models.CanonicalRecord {
	normalized := e.normalizeFieldKeys(raw)
	records := make([]models.CanonicalRecord, 0, len(normalized))
	for i, rec := range normalized {
		amount := ParseAmount(rec["amount"])
		status := stringField(rec, "status")

		cr := models.CanonicalRecord{
			TransactionNumber: stringField(rec, e.fieldKeys["transactionNumber"]...),
			Type:              stringField(rec, e.fieldKeys["type"]...),
			Amount:            amount,
			Date:              ParseDate(firstValue(rec, e.fieldKeys["date"]...), dateFormat),
			DueDate:           ParseDate(firstValue(rec, e.fieldKeys["dueDate"]...), dateFormat),
			Status:            status,
			Reference:         stringField(rec, "reference"),
			PaymentDate:       ParseDate(rec["payment_date"], dateFormat),
			IsPaid:            boolField(rec, "is_paid") || status == statusPaid,
			IsVoided:          boolField(rec, "is_voided") || status == statusVoided,
			IsPartiallyPaid:   boolField(rec, "is_partially_paid"),
			AmountPaid:        ParseAmount(rec["amount_paid"]),
			Seq:               i,
		}
		if v, ok := rec["original_amount"]; ok {
			cr.OriginalAmount = ParseAmount(v)
		} else {
			cr.OriginalAmount = amount
		}
		records = append(records, cr)
	}
	return records
}

// firstValue returns the value of the first key present in rec, nil when none
// is.
func firstValue(rec models.RawRecord, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			return v
		}
	}
	return nil
}

// stringField resolves keys in order and returns the first non-empty string
// rendering found.
func stringField(rec models.RawRecord, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			if s := stringValue(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringValue renders a raw cell as a trimmed string. Whole numbers print
// without an exponent or trailing zeros; invoice numbers sometimes arrive as
// numeric cells.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// boolField reads a flag column tolerantly: real booleans, "true"/"1"/"yes"
// strings and non-zero numbers all count as set.
func boolField(rec models.RawRecord, key string) bool {
	v, ok := rec[key]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "yes"
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}
