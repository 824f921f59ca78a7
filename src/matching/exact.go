// backend/src/matching/exact.go
package matching

import (
	"math"

	"github.com/username/ledgerlink/backend/src/models"
)

// amountsMatch compares amounts by absolute value under the profile
// tolerance. The two sides of the same invoice carry opposite signs.
func (e *Engine) amountsMatch(a, b models.CanonicalRecord) bool {
	return math.Abs(math.Abs(a.Amount)-math.Abs(b.Amount)) < e.profile.AmountTolerance
}

// isExactMatch decides whether a lone candidate is a perfect match: identity
// through the transaction number or a non-empty shared reference, amounts
// within tolerance, and neither side partially paid. A partially paid invoice
// is never a perfect match even when everything else lines up; it must
// surface as a discrepancy.
func (e *Engine) isExactMatch(a, b models.CanonicalRecord) bool {
	if a.IsPartiallyPaid || b.IsPartiallyPaid {
		return false
	}
	if !e.amountsMatch(a, b) {
		return false
	}
	if a.TransactionNumber != "" && a.TransactionNumber == b.TransactionNumber {
		return true
	}
	return a.Reference != "" && a.Reference == b.Reference
}

// findPerfectMatchAmongCandidates resolves an ambiguous candidate set to a
// single perfect match, or nil when no candidate qualifies unambiguously.
// Transaction-number identity wins outright; for credit notes a unique
// credit-to-credit reference match wins; for anything else a unique plain
// reference match wins. Two or more equally valid reference matches stay
// ambiguous here and fall through to scoring.
func (e *Engine) findPerfectMatchAmongCandidates(item models.CanonicalRecord, candidates []models.CanonicalRecord) *models.CanonicalRecord {
	for i := range candidates {
		c := candidates[i]
		if item.TransactionNumber != "" && c.TransactionNumber == item.TransactionNumber &&
			e.amountsMatch(item, c) && !item.IsPartiallyPaid && !c.IsPartiallyPaid {
			return &candidates[i]
		}
	}

	if IsCreditNote(item) {
		if item.Reference == "" {
			return nil
		}
		hits := make([]int, 0, 2)
		for i := range candidates {
			c := candidates[i]
			if IsCreditNote(c) && c.Reference == item.Reference &&
				e.amountsMatch(item, c) && !item.IsPartiallyPaid && !c.IsPartiallyPaid {
				hits = append(hits, i)
			}
		}
		if len(hits) == 1 {
			return &candidates[hits[0]]
		}
		return nil
	}

	if item.Reference == "" {
		return nil
	}
	hits := make([]int, 0, 2)
	for i := range candidates {
		c := candidates[i]
		if c.Reference == item.Reference && e.amountsMatch(item, c) &&
			!item.IsPartiallyPaid && !c.IsPartiallyPaid {
			hits = append(hits, i)
		}
	}
	if len(hits) == 1 {
		return &candidates[hits[0]]
	}
	return nil
}
