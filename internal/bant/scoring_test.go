package bant

import (
	"testing"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

func strPtr(s string) *string { return &s }

func TestScore_WeightedTotal(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.Weights = Weights{Budget: 25, Authority: 25, Need: 25, Timeline: 25, Contact: 0}

	n := models.NormalizedBANT{
		Budget:    strPtr("high"),
		Authority: strPtr("individual"),
		Need:      strPtr("residence"),
		Timeline:  strPtr("1m"),
	}
	res := Score(n, true, cfg)

	// 0.25*30 + 0.25*30 + 0.25*25 + 0.25*30
	if res.Total != 28.75 {
		t.Fatalf("expected total 28.75, got %v", res.Total)
	}
	if res.Tier != "Priority" {
		t.Fatalf("expected Priority tier, got %s", res.Tier)
	}
}

func TestScore_ThresholdLowerBoundInclusive(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.Weights = Weights{Budget: 100}
	cfg.Tables.Budget = map[string]float64{"low": 12, "medium": 20, "high": 26}

	cases := []struct {
		band string
		tier string
	}{
		{"high", "Priority"},
		{"medium", "Hot"},
		{"low", "Warm"},
	}
	for _, c := range cases {
		res := Score(models.NormalizedBANT{Budget: strPtr(c.band)}, false, cfg)
		if res.Tier != c.tier {
			t.Fatalf("band %s: expected tier %s at exact threshold, got %s (total %v)", c.band, c.tier, res.Tier, res.Total)
		}
	}
}

func TestScore_EmptyStateIsCold(t *testing.T) {
	res := Score(models.NormalizedBANT{}, false, DefaultScoringConfig())
	if res.Total != 0 {
		t.Fatalf("expected total 0, got %v", res.Total)
	}
	if res.Tier != TierCold {
		t.Fatalf("expected %s tier, got %s", TierCold, res.Tier)
	}
}

func TestScore_ContactOnPresence(t *testing.T) {
	cfg := DefaultScoringConfig()
	with := Score(models.NormalizedBANT{}, true, cfg)
	without := Score(models.NormalizedBANT{}, false, cfg)
	if with.PerField[FieldContact] != cfg.Tables.ContactPresent {
		t.Fatalf("expected contact score %v, got %v", cfg.Tables.ContactPresent, with.PerField[FieldContact])
	}
	if without.PerField[FieldContact] != 0 {
		t.Fatalf("expected contact score 0 without contact, got %v", without.PerField[FieldContact])
	}
}

func TestScore_Deterministic(t *testing.T) {
	n := models.NormalizedBANT{Budget: strPtr("medium"), Timeline: strPtr("3-6m")}
	cfg := DefaultScoringConfig()
	a := Score(n, false, cfg)
	b := Score(n, false, cfg)
	if a.Total != b.Total || a.Tier != b.Tier {
		t.Fatalf("expected identical results, got %v/%s and %v/%s", a.Total, a.Tier, b.Total, b.Tier)
	}
}

func TestScoringConfigValidate(t *testing.T) {
	if err := DefaultScoringConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	bad := DefaultScoringConfig()
	bad.Weights.Contact = 10
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected weight sum rejection")
	}

	bad = DefaultScoringConfig()
	bad.Thresholds = []Threshold{{Tier: "Hot", Min: 20}, {Tier: "Priority", Min: 26}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected non-descending thresholds rejection")
	}
}
