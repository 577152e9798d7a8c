package bant

import (
	"testing"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

func TestNormalizeBudget(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"50-60M", "high"},
		{"30-50M", "high"}, // upper bound decides the band
		{"12M", "medium"},
		{"8 million", "low"},
		{"500k", "low"},
		{"PHP 35,000,000", "high"},
		{"around 15", "medium"},
		{"2.5M", "low"},
		{"1 billion", "high"},
	}
	for _, c := range cases {
		got := NormalizeBudget(c.raw)
		if got == nil || *got != c.want {
			t.Fatalf("NormalizeBudget(%q): expected %s, got %v", c.raw, c.want, got)
		}
	}

	if got := NormalizeBudget("no idea yet"); got != nil {
		t.Fatalf("expected nil for amount-free text, got %v", *got)
	}
}

func TestNormalizeAuthority(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Yes, I am the sole decision maker", "individual"},
		{"yes", "individual"},
		{"me", "individual"},
		{"I decide alone", "individual"},
		{"My wife and I will decide together", "shared"},
		{"no, I need to consult my parents", "shared"},
	}
	for _, c := range cases {
		got := NormalizeAuthority(c.raw)
		if got == nil || *got != c.want {
			t.Fatalf("NormalizeAuthority(%q): expected %s, got %v", c.raw, c.want, got)
		}
	}
}

func TestNormalizeNeed(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"For personal residence", "residence"},
		{"we plan to live in it", "residence"},
		{"rental income", "investment"},
		{"it's an investment", "investment"},
		{"planning to flip it", "resale"},
	}
	for _, c := range cases {
		got := NormalizeNeed(c.raw)
		if got == nil || *got != c.want {
			t.Fatalf("NormalizeNeed(%q): expected %s, got %v", c.raw, c.want, got)
		}
	}
}

func TestNormalizeTimeline(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Within 3 months", "1-3m"},
		{"in 1 month", "1m"},
		{"2-4 months", "3-6m"}, // upper bound decides the bucket
		{"in 6 months", "3-6m"},
		{"in 12 months", "6m+"},
		{"asap", "1m"},
		{"next year", "6m+"},
		{"soon", "1-3m"},
		{"half a year", "3-6m"},
	}
	for _, c := range cases {
		got := NormalizeTimeline(c.raw)
		if got == nil || *got != c.want {
			t.Fatalf("NormalizeTimeline(%q): expected %s, got %v", c.raw, c.want, got)
		}
	}
}

func TestSanitize_DropsOutOfDomain(t *testing.T) {
	n := models.NormalizedBANT{
		Budget:    strPtr("luxury"),
		Authority: strPtr("individual"),
	}
	clean, defects := Sanitize(n)
	if clean.Budget != nil {
		t.Fatalf("out-of-domain budget must be nulled, got %v", *clean.Budget)
	}
	if clean.Authority == nil || *clean.Authority != "individual" {
		t.Fatalf("in-domain authority must survive")
	}
	if len(defects) != 1 || defects[0] != FieldBudget {
		t.Fatalf("expected budget defect, got %v", defects)
	}
}

func TestMergeNormalized_ModelWins(t *testing.T) {
	model := models.NormalizedBANT{Budget: strPtr("high")}
	fallback := models.NormalizedBANT{Budget: strPtr("medium"), Need: strPtr("residence")}
	merged := MergeNormalized(model, fallback)
	if *merged.Budget != "high" {
		t.Fatalf("model value must win, got %s", *merged.Budget)
	}
	if merged.Need == nil || *merged.Need != "residence" {
		t.Fatalf("fallback must patch holes, got %v", merged.Need)
	}
}

func TestFallback_FullState(t *testing.T) {
	n := Fallback(models.BANTState{
		Budget:    strPtr("50-60M"),
		Authority: strPtr("Yes, I am the sole decision maker"),
		Need:      strPtr("For personal residence"),
		Timeline:  strPtr("Within 3 months"),
	})
	if n.Budget == nil || *n.Budget != "high" {
		t.Fatalf("expected high budget, got %v", n.Budget)
	}
	if n.Authority == nil || *n.Authority != "individual" {
		t.Fatalf("expected individual authority, got %v", n.Authority)
	}
	if n.Need == nil || *n.Need != "residence" {
		t.Fatalf("expected residence need, got %v", n.Need)
	}
	if n.Timeline == nil || *n.Timeline != "1-3m" {
		t.Fatalf("expected 1-3m timeline, got %v", n.Timeline)
	}
}

func TestParseContact(t *testing.T) {
	c := ParseContact("John Doe, 09171234567")
	if c.Name != "John Doe" {
		t.Fatalf("expected name John Doe, got %q", c.Name)
	}
	if c.Phone != "09171234567" {
		t.Fatalf("expected phone captured, got %q", c.Phone)
	}

	c = ParseContact("my name is Maria Santos, maria@example.com")
	if c.Name != "Maria Santos" {
		t.Fatalf("expected name Maria Santos, got %q", c.Name)
	}
	if c.Email != "maria@example.com" {
		t.Fatalf("expected email captured, got %q", c.Email)
	}
	if c.Phone != "" {
		t.Fatalf("expected no phone, got %q", c.Phone)
	}
}
