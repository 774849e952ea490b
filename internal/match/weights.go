package match

import (
	"encoding/json"
	"fmt"
	"os"
)

// Tier awards Points when a measured value is below (or at most) Limit.
type Tier struct {
	Limit  int `json:"limit"`
	Points int `json:"points"`
}

// Weights holds every product-tuning constant of the match score.
type Weights struct {
	// Budget: tiers on |destination budget - user budget|, checked with "<".
	BudgetTiers    []Tier `json:"budgetTiers"`
	BudgetFallback int    `json:"budgetFallback"`
	BudgetUnknown  int    `json:"budgetUnknown"`

	VibeExact   int `json:"vibeExact"`
	VibePartial int `json:"vibePartial"`

	// Travel: tiers on travel hours, checked with "<=".
	TravelTiers      []Tier `json:"travelTiers"`
	TravelFallback   int    `json:"travelFallback"`
	TravelNoCity     int    `json:"travelNoCity"`
	TravelUnresolved int    `json:"travelUnresolved"`

	InterestPerMatch int `json:"interestPerMatch"`
	InterestCap      int `json:"interestCap"`
	InterestNone     int `json:"interestNone"`

	FeasibleResolved int `json:"feasibleResolved"`
	FeasibleNoCity   int `json:"feasibleNoCity"`
	FeasibleNone     int `json:"feasibleNone"`

	MaxScore int `json:"maxScore"`
}

// DefaultWeights returns the standard 30/25/20/15/10 weighting.
func DefaultWeights() Weights {
	return Weights{
		BudgetTiers:    []Tier{{Limit: 5000, Points: 30}, {Limit: 10000, Points: 20}, {Limit: 15000, Points: 10}},
		BudgetFallback: 5,
		BudgetUnknown:  15,

		VibeExact:   25,
		VibePartial: 10,

		TravelTiers:      []Tier{{Limit: 6, Points: 20}, {Limit: 12, Points: 15}, {Limit: 18, Points: 10}},
		TravelFallback:   5,
		TravelNoCity:     10,
		TravelUnresolved: 0,

		InterestPerMatch: 5,
		InterestCap:      15,
		InterestNone:     7,

		FeasibleResolved: 10,
		FeasibleNoCity:   5,
		FeasibleNone:     0,

		MaxScore: 100,
	}
}

// LoadWeights reads a JSON file and overlays it on DefaultWeights. Keys not
// present in the file keep their default values.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	b, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("reading weights %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return w, fmt.Errorf("decoding weights %s: %w", path, err)
	}
	if w.MaxScore <= 0 {
		return w, fmt.Errorf("weights %s: maxScore must be positive", path)
	}
	return w, nil
}
