// backend/src/matching/candidates.go
package matching

import "github.com/username/ledgerlink/backend/src/models"

// findPotentialMatches returns the plausible counterparts for item among
// candidates. Transaction-number equality takes absolute precedence: as soon
// as any candidate shares the number, reference-based candidates are not
// considered at all. Credit notes often carry the original invoice's number
// in their reference field instead of a number of their own, so for a credit
// note the next stage is reference equality against other credit notes.
// Plain reference equality is the last resort, and empty keys never match
// empty keys.
func (e *Engine) findPotentialMatches(item models.CanonicalRecord, candidates []models.CanonicalRecord) []models.CanonicalRecord {
	if item.TransactionNumber != "" {
		var byNumber []models.CanonicalRecord
		for _, c := range candidates {
			if c.TransactionNumber == item.TransactionNumber {
				byNumber = append(byNumber, c)
			}
		}
		if len(byNumber) > 0 {
			return byNumber
		}
	}

	if IsCreditNote(item) && item.Reference != "" {
		var creditByRef []models.CanonicalRecord
		for _, c := range candidates {
			if IsCreditNote(c) && c.Reference == item.Reference {
				creditByRef = append(creditByRef, c)
			}
		}
		if len(creditByRef) > 0 {
			return creditByRef
		}
	}

	if item.Reference == "" {
		return nil
	}
	var byRef []models.CanonicalRecord
	for _, c := range candidates {
		if c.Reference == item.Reference {
			byRef = append(byRef, c)
		}
	}
	return byRef
}
