package bant

import (
	"fmt"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

// Weights are percentages and must sum to 100. Contact may be zero.
type Weights struct {
	Budget    int `json:"budget"`
	Authority int `json:"authority"`
	Need      int `json:"need"`
	Timeline  int `json:"timeline"`
	Contact   int `json:"contact"`
}

// ScoreTables map each normalized value to a raw per-field score. Contact is
// scored on presence alone.
type ScoreTables struct {
	Budget         map[string]float64 `json:"budget"`
	Authority      map[string]float64 `json:"authority"`
	Need           map[string]float64 `json:"need"`
	Timeline       map[string]float64 `json:"timeline"`
	ContactPresent float64            `json:"contact_present"`
}

// Threshold is an inclusive lower bound for a tier. Thresholds are evaluated
// descending; the first one the total meets wins.
type Threshold struct {
	Tier string  `json:"tier"`
	Min  float64 `json:"min"`
}

type ScoringConfig struct {
	Weights    Weights     `json:"weights"`
	Tables     ScoreTables `json:"tables"`
	Thresholds []Threshold `json:"thresholds"`
}

const TierCold = "Cold"

// DefaultScoringConfig applies when an agent has no custom table.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: Weights{Budget: 25, Authority: 25, Need: 25, Timeline: 20, Contact: 5},
		Tables: ScoreTables{
			Budget:         map[string]float64{"low": 10, "medium": 20, "high": 30},
			Authority:      map[string]float64{"individual": 30, "shared": 20},
			Need:           map[string]float64{"residence": 25, "investment": 30, "resale": 15},
			Timeline:       map[string]float64{"1m": 30, "1-3m": 25, "3-6m": 15, "6m+": 5},
			ContactPresent: 30,
		},
		Thresholds: []Threshold{
			{Tier: "Priority", Min: 26},
			{Tier: "Hot", Min: 20},
			{Tier: "Warm", Min: 12},
		},
	}
}

// Validate rejects configs that storage or the tier walk cannot honor.
func (c ScoringConfig) Validate() error {
	sum := c.Weights.Budget + c.Weights.Authority + c.Weights.Need + c.Weights.Timeline + c.Weights.Contact
	if sum != 100 {
		return fmt.Errorf("weights must sum to 100, got %d", sum)
	}
	for i := 1; i < len(c.Thresholds); i++ {
		if c.Thresholds[i].Min >= c.Thresholds[i-1].Min {
			return fmt.Errorf("thresholds must be strictly descending")
		}
	}
	return nil
}

// ScoreResult is what qualification completion produces for the lead record.
type ScoreResult struct {
	PerField map[Field]float64 `json:"per_field"`
	Total    float64           `json:"total"`
	Tier     string            `json:"tier"`
}

// Score is a pure function: identical inputs and config always produce the
// same result. Scores are shown to end users as justification, so no
// randomness and no clock reads here.
func Score(n models.NormalizedBANT, contactPresent bool, cfg ScoringConfig) ScoreResult {
	lookup := func(table map[string]float64, v *string) float64 {
		if v == nil {
			return 0
		}
		return table[*v]
	}

	perField := map[Field]float64{
		FieldBudget:    lookup(cfg.Tables.Budget, n.Budget),
		FieldAuthority: lookup(cfg.Tables.Authority, n.Authority),
		FieldNeed:      lookup(cfg.Tables.Need, n.Need),
		FieldTimeline:  lookup(cfg.Tables.Timeline, n.Timeline),
	}
	if contactPresent {
		perField[FieldContact] = cfg.Tables.ContactPresent
	} else {
		perField[FieldContact] = 0
	}

	total := float64(cfg.Weights.Budget)/100*perField[FieldBudget] +
		float64(cfg.Weights.Authority)/100*perField[FieldAuthority] +
		float64(cfg.Weights.Need)/100*perField[FieldNeed] +
		float64(cfg.Weights.Timeline)/100*perField[FieldTimeline] +
		float64(cfg.Weights.Contact)/100*perField[FieldContact]

	tier := TierCold
	for _, th := range cfg.Thresholds {
		if total >= th.Min {
			tier = th.Tier
			break
		}
	}

	return ScoreResult{PerField: perField, Total: total, Tier: tier}
}
