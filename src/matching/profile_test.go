// backend/src/matching/profile_test.go
package matching

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/username/ledgerlink/backend/src/models"
)

func TestLoadProfileMissingFileUsesDefaults(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing profile file must not error: %v", err)
	}
	def := DefaultProfile()
	if p.AmountTolerance != def.AmountTolerance || p.DateToleranceDays != def.DateToleranceDays || p.Weights != def.Weights {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func TestLoadProfileEmptyPathUsesDefaults(t *testing.T) {
	p, err := LoadProfile("")
	if err != nil {
		t.Fatalf("empty path must not error: %v", err)
	}
	if p.Weights != DefaultProfile().Weights {
		t.Errorf("expected default weights, got %+v", p.Weights)
	}
}

func TestLoadProfileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	content := []byte(`
amount_tolerance: 0.05
extra_aliases:
  transactionNumber:
    - doc_no
score_weights:
  amount: 3
  transaction_number: 5
  credit_note_reference: 4
  reference: 2
  same_date: 1
  near_date: 0.5
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing profile: %v", err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.AmountTolerance != 0.05 {
		t.Errorf("amount_tolerance not applied: %v", p.AmountTolerance)
	}
	if p.DateToleranceDays != 1 {
		t.Errorf("unset keys must keep defaults, date_tolerance_days = %d", p.DateToleranceDays)
	}
	if got := p.ExtraAliases["transactionNumber"]; len(got) != 1 || got[0] != "doc_no" {
		t.Errorf("extra aliases not applied: %v", got)
	}
}

func TestLoadProfileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- not yaml"), 0o600); err != nil {
		t.Fatalf("writing profile: %v", err)
	}

	if _, err := LoadProfile(path); err == nil {
		t.Error("malformed profile must return an error")
	}
}

func TestNewEngineGuardsDegenerateProfile(t *testing.T) {
	engine := NewEngine(Profile{})
	if engine.profile.AmountTolerance != DefaultProfile().AmountTolerance {
		t.Errorf("zero tolerance must fall back to default, got %v", engine.profile.AmountTolerance)
	}
	if engine.profile.Weights == (ScoreWeights{}) {
		t.Error("all-zero weights must fall back to defaults")
	}
	if engine.profile.DateToleranceDays != DefaultProfile().DateToleranceDays {
		t.Errorf("zero date tolerance must fall back to default, got %d", engine.profile.DateToleranceDays)
	}
	if engine.profile.NearDateWindowDays != DefaultProfile().NearDateWindowDays {
		t.Errorf("zero near-date window must fall back to default, got %d", engine.profile.NearDateWindowDays)
	}
}

func TestNewEngineZeroProfileDateTolerance(t *testing.T) {
	engine := NewEngine(Profile{})
	rec1 := engine.NormalizeData([]models.RawRecord{
		{"transactionNumber": "INV-1", "amount": "100.00", "date": "01/02/2024"},
	}, "DD/MM/YYYY")
	rec2 := engine.NormalizeData([]models.RawRecord{
		{"transactionNumber": "INV-1", "amount": "100.00", "date": "02/02/2024"},
	}, "DD/MM/YYYY")

	if dm := engine.findDateMismatch(rec1[0], rec2[0]); dm != nil {
		t.Errorf("one day apart must stay within tolerance under a zero profile, got %+v", dm)
	}
}
