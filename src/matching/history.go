// backend/src/matching/history.go
package matching

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/username/ledgerlink/backend/src/models"
)

// Insight classifications, ordered roughly by how actionable they are.
const (
	insightAlreadyPaid    = "already_paid"
	insightPartiallyPaid  = "partially_paid"
	insightVoided         = "voided"
	insightDraft          = "draft"
	insightFoundInHistory = "found_in_history"
)

// findHistoricalMatches returns every historical record sharing a transaction
// number or a reference with item. Empty keys never match.
func (e *Engine) findHistoricalMatches(item models.CanonicalRecord, historical []models.CanonicalRecord) []models.CanonicalRecord {
	var matches []models.CanonicalRecord
	for _, h := range historical {
		if item.TransactionNumber != "" && h.TransactionNumber == item.TransactionNumber {
			matches = append(matches, h)
			continue
		}
		if item.Reference != "" && h.Reference == item.Reference {
			matches = append(matches, h)
		}
	}
	return matches
}

// bestHistoricalMatch picks the most informative record out of a non-empty
// match set: paid entries first, then the most recent date. The sort is
// stable so full ties keep input order.
func bestHistoricalMatch(matches []models.CanonicalRecord) models.CanonicalRecord {
	sorted := make([]models.CanonicalRecord, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsPaid != sorted[j].IsPaid {
			return sorted[i].IsPaid
		}
		return sorted[i].Date > sorted[j].Date
	})
	return sorted[0]
}

// determineHistoricalInsight classifies what a historical record says about
// the unmatched item it was found for.
func determineHistoricalInsight(h models.CanonicalRecord) models.Insight {
	switch {
	case h.IsPaid:
		msg := fmt.Sprintf("Invoice %s was already paid", invoiceLabel(h))
		if h.PaymentDate != "" {
			msg = fmt.Sprintf("Invoice %s was already paid on %s", invoiceLabel(h), h.PaymentDate)
		}
		return models.Insight{Type: insightAlreadyPaid, Severity: "warning", Message: msg}
	case h.IsPartiallyPaid:
		outstanding := h.OriginalAmount - h.AmountPaid
		return models.Insight{
			Type:     insightPartiallyPaid,
			Severity: "warning",
			Message: fmt.Sprintf("Invoice %s is partially paid: %s of %s settled, %s outstanding",
				invoiceLabel(h), formatCurrency(h.AmountPaid), formatCurrency(h.OriginalAmount), formatCurrency(outstanding)),
		}
	case h.IsVoided:
		return models.Insight{
			Type:     insightVoided,
			Severity: "error",
			Message:  fmt.Sprintf("Invoice %s was voided", invoiceLabel(h)),
		}
	case h.Status == statusDraft:
		return models.Insight{
			Type:     insightDraft,
			Severity: "info",
			Message:  fmt.Sprintf("Invoice %s is still a draft on the other side", invoiceLabel(h)),
		}
	default:
		status := h.Status
		if status == "" {
			status = "unknown"
		}
		return models.Insight{
			Type:     insightFoundInHistory,
			Severity: "info",
			Message:  fmt.Sprintf("Invoice %s appears in history with status %s", invoiceLabel(h), status),
		}
	}
}

// resolveHistoricalInsights runs the historical pass over the payables-side
// records that stayed unmatched. With no historical data it returns nil.
func (e *Engine) resolveHistoricalInsights(unmatched, historical []models.CanonicalRecord) []models.HistoricalInsight {
	if len(historical) == 0 {
		return nil
	}
	var insights []models.HistoricalInsight
	for _, item := range unmatched {
		matches := e.findHistoricalMatches(item, historical)
		if len(matches) == 0 {
			continue
		}
		top := bestHistoricalMatch(matches)
		insights = append(insights, models.HistoricalInsight{
			APItem:          item,
			HistoricalMatch: top,
			Insight:         determineHistoricalInsight(top),
		})
	}
	return insights
}

// invoiceLabel names a record for a human-readable message.
func invoiceLabel(r models.CanonicalRecord) string {
	if r.TransactionNumber != "" {
		return r.TransactionNumber
	}
	if r.Reference != "" {
		return r.Reference
	}
	return "(unnumbered)"
}

// formatCurrency renders an amount with exactly two decimal places for
// insight messages.
func formatCurrency(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}
