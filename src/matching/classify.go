// backend/src/matching/classify.go
package matching

import (
	"strings"

	"github.com/username/ledgerlink/backend/src/models"
)

// Credit-note type codes used by common accounting packages. The receivables
// and payables exports of the same credit note carry different codes.
const (
	typeReceivableCreditNote = "ACCRECCREDIT"
	typePayableCreditNote    = "ACCPAYCREDIT"
)

// IsCreditNote reports whether a record is a credit note. Sources disagree on
// the encoding: some set a type code, others only flip the amount sign, so
// either signal counts.
func IsCreditNote(r models.CanonicalRecord) bool {
	t := strings.ToUpper(r.Type)
	if t == typeReceivableCreditNote || t == typePayableCreditNote || strings.Contains(t, "CREDIT") {
		return true
	}
	return r.Amount < 0
}
