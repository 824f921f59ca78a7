// backend/src/matching/dates.go
package matching

import "github.com/username/ledgerlink/backend/src/models"

// Date-mismatch kinds.
const (
	mismatchTransactionDate = "transaction_date"
	mismatchDueDate         = "due_date"
)

// findDateMismatch annotates a perfect match whose dates diverge beyond the
// profile tolerance. Transaction dates are checked before due dates and the
// first divergence wins. A missing or unparseable date on either side is
// skipped, not flagged. The returned annotation never reclassifies the pair.
func (e *Engine) findDateMismatch(item1, item2 models.CanonicalRecord) *models.DateMismatch {
	if d, ok := daysBetween(item1.Date, item2.Date); ok && d > e.profile.DateToleranceDays {
		return &models.DateMismatch{
			Company1:       item1,
			Company2:       item2,
			MismatchType:   mismatchTransactionDate,
			Company1Date:   item1.Date,
			Company2Date:   item2.Date,
			DaysDifference: d,
		}
	}
	if d, ok := daysBetween(item1.DueDate, item2.DueDate); ok && d > e.profile.DateToleranceDays {
		return &models.DateMismatch{
			Company1:       item1,
			Company2:       item2,
			MismatchType:   mismatchDueDate,
			Company1Date:   item1.DueDate,
			Company2Date:   item2.DueDate,
			DaysDifference: d,
		}
	}
	return nil
}
