package match

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/neexbeast/getaway-planner/internal/catalog"
	"github.com/neexbeast/getaway-planner/internal/preferences"
)

var hoursPattern = regexp.MustCompile(`\d+`)

// Scorer computes deterministic 0..MaxScore compatibility scores.
type Scorer struct {
	w Weights
}

// NewScorer constructs a Scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Breakdown is the per-criterion result behind a score.
type Breakdown struct {
	Budget      int `json:"budget"`
	Vibe        int `json:"vibe"`
	Travel      int `json:"travel"`
	Interests   int `json:"interests"`
	Feasibility int `json:"feasibility"`
}

// Total sums the sub-scores and clamps them to [0, max].
func (b Breakdown) Total(max int) int {
	t := b.Budget + b.Vibe + b.Travel + b.Interests + b.Feasibility
	if t > max {
		return max
	}
	if t < 0 {
		return 0
	}
	return t
}

// Score returns the match score of d against p.
func (s *Scorer) Score(d catalog.Destination, p preferences.UserPreferences) int {
	return s.Breakdown(d, p).Total(s.w.MaxScore)
}

// Breakdown returns the individual sub-scores of d against p.
func (s *Scorer) Breakdown(d catalog.Destination, p preferences.UserPreferences) Breakdown {
	hours, resolved := travelHours(d, p.DepartureCity)
	return Breakdown{
		Budget:      s.budgetScore(d, p),
		Vibe:        s.vibeScore(d, p),
		Travel:      s.travelScore(hours, resolved, p.HasDepartureCity()),
		Interests:   s.interestScore(d, p),
		Feasibility: s.feasibilityScore(resolved, p.HasDepartureCity()),
	}
}

func (s *Scorer) budgetScore(d catalog.Destination, p preferences.UserPreferences) int {
	if !p.HasBudget() {
		return s.w.BudgetUnknown
	}
	diff := abs(BudgetAmount(d) - p.Budget)
	for _, t := range s.w.BudgetTiers {
		if diff < t.Limit {
			return t.Points
		}
	}
	return s.w.BudgetFallback
}

func (s *Scorer) vibeScore(d catalog.Destination, p preferences.UserPreferences) int {
	if !p.HasVibe() {
		return 0
	}
	vibe := strings.TrimSpace(p.Vibe)
	for _, v := range d.MatchCriteria.Vibes {
		if strings.EqualFold(v, vibe) {
			return s.w.VibeExact
		}
	}
	joined := strings.ToLower(strings.Join(d.MatchCriteria.Vibes, " "))
	for _, tok := range strings.Fields(strings.ToLower(vibe)) {
		if strings.Contains(joined, tok) {
			return s.w.VibePartial
		}
	}
	return 0
}

func (s *Scorer) travelScore(hours int, resolved, cityGiven bool) int {
	if !resolved {
		if !cityGiven {
			return s.w.TravelNoCity
		}
		return s.w.TravelUnresolved
	}
	for _, t := range s.w.TravelTiers {
		if hours <= t.Limit {
			return t.Points
		}
	}
	return s.w.TravelFallback
}

func (s *Scorer) interestScore(d catalog.Destination, p preferences.UserPreferences) int {
	if !p.HasInterests() {
		return s.w.InterestNone
	}
	matches := 0
	for _, want := range p.Interests {
		for _, have := range d.MatchCriteria.Interests {
			if strings.EqualFold(strings.TrimSpace(want), have) {
				matches++
				break
			}
		}
	}
	score := matches * s.w.InterestPerMatch
	if score > s.w.InterestCap {
		return s.w.InterestCap
	}
	return score
}

func (s *Scorer) feasibilityScore(resolved, cityGiven bool) int {
	switch {
	case resolved:
		return s.w.FeasibleResolved
	case !cityGiven:
		return s.w.FeasibleNoCity
	default:
		return s.w.FeasibleNone
	}
}

// BudgetAmount reads the numeric amount out of the destination budget by
// dropping every non-digit character.
func BudgetAmount(d catalog.Destination) int {
	var digits strings.Builder
	for _, r := range d.ComparisonData.Budget {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}

// TravelTime looks up the travel time string for a departure city, ignoring
// case. ok is false when the city is empty or not listed.
func TravelTime(d catalog.Destination, city string) (string, bool) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", false
	}
	if v, ok := d.ComparisonData.TravelTime[city]; ok {
		return v, true
	}
	for k, v := range d.ComparisonData.TravelTime {
		if strings.EqualFold(k, city) {
			return v, true
		}
	}
	return "", false
}

// NotRecommended reports whether the destination is explicitly marked as not
// recommended from the given city.
func NotRecommended(d catalog.Destination, city string) bool {
	v, ok := TravelTime(d, city)
	return ok && isNotRecommended(v)
}

func isNotRecommended(v string) bool {
	return strings.Contains(strings.ToLower(v), "not recommended")
}

// travelHours resolves the leading hour count for city. resolved is false
// when there is no usable entry.
func travelHours(d catalog.Destination, city string) (int, bool) {
	v, ok := TravelTime(d, city)
	if !ok || isNotRecommended(v) {
		return 0, false
	}
	m := hoursPattern.FindString(v)
	if m == "" {
		return 0, false
	}
	h, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return h, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
