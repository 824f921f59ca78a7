// backend/src/matching/engine.go

// Package matching implements the reconciliation engine. It takes two
// heterogeneous sets of invoice rows (the uploader's ledger and a
// counterparty's) plus an optional historical dataset and partitions them
// into perfect matches, mismatches, unmatched items, date annotations on
// matches, and historical insights, together with side totals and variance.
//
// The engine is stateless and does no I/O: callers own parsing on the way in
// and persistence on the way out. Independent runs may execute concurrently
// on the same Engine.
package matching

import (
	"fmt"
	"math"

	"github.com/username/ledgerlink/backend/src/models"
)

// DefaultDateFormat applies when a caller leaves a date format empty.
const DefaultDateFormat = "DD/MM/YYYY"

// Engine runs reconciliation passes under a fixed profile. Construction is
// cheap and the engine holds no per-run state, so one engine per request and
// one shared engine are equally fine.
type Engine struct {
	profile Profile

	// fieldKeys maps each canonical field to its lookup keys, canonical key
	// first. Built once from the profile's alias configuration.
	fieldKeys map[string][]string
}

// NewEngine builds an engine from profile. Zero-valued tunables that would
// make matching degenerate (a zero amount tolerance, an all-zero weight set)
// fall back to their defaults.
func NewEngine(profile Profile) *Engine {
	def := DefaultProfile()
	if profile.AmountTolerance <= 0 {
		profile.AmountTolerance = def.AmountTolerance
	}
	if profile.DateToleranceDays <= 0 {
		profile.DateToleranceDays = def.DateToleranceDays
	}
	if profile.NearDateWindowDays <= 0 {
		profile.NearDateWindowDays = def.NearDateWindowDays
	}
	if profile.Weights == (ScoreWeights{}) {
		profile.Weights = def.Weights
	}

	fieldKeys := make(map[string][]string, len(canonicalFields))
	for _, f := range canonicalFields {
		keys := append([]string{f.key}, f.aliases...)
		keys = append(keys, profile.ExtraAliases[f.key]...)
		fieldKeys[f.key] = keys
	}
	return &Engine{profile: profile, fieldKeys: fieldKeys}
}

// MatchRecords reconciles data1 (the uploader's ledger) against data2 (the
// counterparty's) and returns the partitioned result. Items are processed in
// input order and each data1 item is matched against the full data2 set, so
// runs are deterministic for identical inputs. Malformed values never error;
// they degrade during normalization. Any internal failure surfaces as a
// single wrapped error with no partial result.
func (e *Engine) MatchRecords(data1, data2 []models.RawRecord, dateFormat1, dateFormat2 string, historical []models.RawRecord) (result *models.ReconciliationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("matching error: %v", r)
		}
	}()

	if dateFormat1 == "" {
		dateFormat1 = DefaultDateFormat
	}
	if dateFormat2 == "" {
		dateFormat2 = DefaultDateFormat
	}

	normalized1 := e.NormalizeData(data1, dateFormat1)
	normalized2 := e.NormalizeData(data2, dateFormat2)
	normalizedHistory := e.NormalizeData(historical, dateFormat1)

	res := &models.ReconciliationResult{
		PerfectMatches: []models.MatchPair{},
		Mismatches:     []models.MatchPair{},
		UnmatchedItems: models.UnmatchedItems{
			Company1: append([]models.CanonicalRecord{}, normalized1...),
			Company2: append([]models.CanonicalRecord{}, normalized2...),
		},
		HistoricalInsights: []models.HistoricalInsight{},
		DateMismatches:     []models.DateMismatch{},
	}

	for _, item := range normalized1 {
		candidates := e.findPotentialMatches(item, normalized2)
		if len(candidates) == 0 {
			continue
		}

		var match models.CanonicalRecord
		if len(candidates) == 1 {
			match = candidates[0]
			if e.isExactMatch(item, match) {
				e.acceptPerfectMatch(res, item, match)
			} else {
				res.Mismatches = append(res.Mismatches, models.MatchPair{Company1: item, Company2: match})
			}
		} else {
			if perfect := e.findPerfectMatchAmongCandidates(item, candidates); perfect != nil {
				match = *perfect
				e.acceptPerfectMatch(res, item, match)
			} else {
				match = *e.findBestMatch(item, candidates)
				res.Mismatches = append(res.Mismatches, models.MatchPair{Company1: item, Company2: match})
			}
		}

		res.UnmatchedItems.Company1 = removeBySeq(res.UnmatchedItems.Company1, item.Seq)
		res.UnmatchedItems.Company2 = removeBySeq(res.UnmatchedItems.Company2, match.Seq)
	}

	if insights := e.resolveHistoricalInsights(res.UnmatchedItems.Company2, normalizedHistory); insights != nil {
		res.HistoricalInsights = insights
	}

	res.Totals = models.Totals{
		Company1Total: sumAmounts(normalized1),
		Company2Total: sumAmounts(normalized2),
	}
	res.Totals.Variance = math.Abs(res.Totals.Company1Total - math.Abs(res.Totals.Company2Total))

	return res, nil
}

// acceptPerfectMatch records the pair and, when the dates disagree beyond
// tolerance, its advisory annotation.
func (e *Engine) acceptPerfectMatch(res *models.ReconciliationResult, item, match models.CanonicalRecord) {
	res.PerfectMatches = append(res.PerfectMatches, models.MatchPair{Company1: item, Company2: match})
	if dm := e.findDateMismatch(item, match); dm != nil {
		res.DateMismatches = append(res.DateMismatches, *dm)
	}
}

// removeBySeq drops the record carrying seq from records. Matching by the
// synthetic sequence index means two structurally identical rows never
// collapse into a single removal.
func removeBySeq(records []models.CanonicalRecord, seq int) []models.CanonicalRecord {
	for i := range records {
		if records[i].Seq == seq {
			return append(records[:i:i], records[i+1:]...)
		}
	}
	return records
}

func sumAmounts(records []models.CanonicalRecord) float64 {
	total := 0.0
	for _, r := range records {
		total += r.Amount
	}
	return total
}
