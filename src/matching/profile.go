// backend/src/matching/profile.go
package matching

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile carries the engine tunables. The defaults reproduce the matching
// behavior the product has always shipped; a YAML profile can widen the
// tolerances or teach the normalizer extra column aliases for a deployment
// whose exports use unusual headers.
type Profile struct {
	// AmountTolerance is the maximum absolute difference between two amounts
	// (compared by absolute value) still considered equal.
	AmountTolerance float64 `yaml:"amount_tolerance"`

	// DateToleranceDays is the largest day distance between two dates that a
	// perfect match tolerates without a date-mismatch annotation.
	DateToleranceDays int `yaml:"date_tolerance_days"`

	// NearDateWindowDays is how far apart two dates may sit and still earn
	// the near-date score contribution.
	NearDateWindowDays int `yaml:"near_date_window_days"`

	Weights ScoreWeights `yaml:"score_weights"`

	// ExtraAliases extends the built-in column alias sets, keyed by canonical
	// field name (transactionNumber, date, dueDate, type).
	ExtraAliases map[string][]string `yaml:"extra_aliases"`
}

// ScoreWeights are the additive contributions of each signal when a candidate
// set has to be ranked instead of resolved exactly.
type ScoreWeights struct {
	Amount              float64 `yaml:"amount"`
	TransactionNumber   float64 `yaml:"transaction_number"`
	CreditNoteReference float64 `yaml:"credit_note_reference"`
	Reference           float64 `yaml:"reference"`
	SameDate            float64 `yaml:"same_date"`
	NearDate            float64 `yaml:"near_date"`
}

// DefaultProfile returns the stock tunables.
func DefaultProfile() Profile {
	return Profile{
		AmountTolerance:    0.01,
		DateToleranceDays:  1,
		NearDateWindowDays: 5,
		Weights: ScoreWeights{
			Amount:              3,
			TransactionNumber:   5,
			CreditNoteReference: 4,
			Reference:           2,
			SameDate:            1,
			NearDate:            0.5,
		},
	}
}

// LoadProfile reads a YAML profile from path and layers it over the defaults:
// keys absent from the document keep their default values. An empty path or a
// missing file is not an error; the defaults apply unchanged.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("failed to read matching profile '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return DefaultProfile(), fmt.Errorf("failed to parse matching profile '%s': %w", path, err)
	}
	return p, nil
}
