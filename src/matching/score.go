// backend/src/matching/score.go
package matching

import "github.com/username/ledgerlink/backend/src/models"

// matchScore ranks a candidate when exact disambiguation failed. The signals
// are additive: matching amounts and identity keys dominate, dates only break
// ties. Empty keys contribute nothing.
func (e *Engine) matchScore(item, candidate models.CanonicalRecord) float64 {
	w := e.profile.Weights
	score := 0.0
	if e.amountsMatch(item, candidate) {
		score += w.Amount
	}
	if item.TransactionNumber != "" && item.TransactionNumber == candidate.TransactionNumber {
		score += w.TransactionNumber
	}
	if item.Reference != "" && item.Reference == candidate.Reference {
		if IsCreditNote(item) && IsCreditNote(candidate) {
			score += w.CreditNoteReference
		} else {
			score += w.Reference
		}
	}
	if item.Date != "" && candidate.Date != "" {
		if item.Date == candidate.Date {
			score += w.SameDate
		} else if d, ok := daysBetween(item.Date, candidate.Date); ok && d <= e.profile.NearDateWindowDays {
			score += w.NearDate
		}
	}
	return score
}

// findBestMatch returns the highest-scoring candidate. On ties the earliest
// candidate wins, which keeps runs reproducible for identical input order.
func (e *Engine) findBestMatch(item models.CanonicalRecord, candidates []models.CanonicalRecord) *models.CanonicalRecord {
	if len(candidates) == 0 {
		return nil
	}
	bestIdx := 0
	bestScore := e.matchScore(item, candidates[0])
	for i := 1; i < len(candidates); i++ {
		if s := e.matchScore(item, candidates[i]); s > bestScore {
			bestScore = s
			bestIdx = i
		}
	}
	return &candidates[bestIdx]
}
