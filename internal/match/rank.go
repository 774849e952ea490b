package match

import (
	"sort"

	"github.com/neexbeast/getaway-planner/internal/catalog"
	"github.com/neexbeast/getaway-planner/internal/preferences"
)

// MaxResults is the number of destinations a comparison shows.
const MaxResults = 3

// TravelTimePlaceholder is shown when no departure city is known.
const TravelTimePlaceholder = "Varies by departure city"

// ScoredDestination is a catalog record flattened for a comparison card,
// with the match score and the travel time for the user's city.
type ScoredDestination struct {
	Name                  string    `json:"name"`
	Tagline               string    `json:"tagline"`
	MatchScore            int       `json:"matchScore"`
	Breakdown             Breakdown `json:"scoreBreakdown"`
	WhyPerfect            string    `json:"whyPerfect"`
	Pros                  []string  `json:"pros"`
	Budget                string    `json:"budget"`
	TravelTime            string    `json:"travelTime"`
	BestFor               string    `json:"bestFor"`
	HiddenGem             string    `json:"hiddenGem"`
	BestTimeToVisit       string    `json:"bestTimeToVisit"`
	QuickItineraryPreview string    `json:"quickItineraryPreview"`
}

// Rank filters out destinations not recommended from the user's departure
// city, scores the rest and returns the best MaxResults in descending score
// order. Equal scores keep catalog order. The result is never nil.
func (s *Scorer) Rank(destinations []catalog.Destination, p preferences.UserPreferences) []ScoredDestination {
	scored := make([]ScoredDestination, 0, len(destinations))
	for _, d := range destinations {
		if p.HasDepartureCity() && NotRecommended(d, p.DepartureCity) {
			continue
		}
		b := s.Breakdown(d, p)
		scored = append(scored, newScored(d, p, b, b.Total(s.w.MaxScore)))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	if len(scored) > MaxResults {
		scored = scored[:MaxResults]
	}
	return scored
}

func newScored(d catalog.Destination, p preferences.UserPreferences, b Breakdown, score int) ScoredDestination {
	travel := TravelTimePlaceholder
	if p.HasDepartureCity() {
		if v, ok := TravelTime(d, p.DepartureCity); ok {
			travel = v
		} else {
			travel = "Not listed from " + p.DepartureCity
		}
	}

	return ScoredDestination{
		Name:                  d.Name,
		Tagline:               d.Tagline,
		MatchScore:            score,
		Breakdown:             b,
		WhyPerfect:            d.ComparisonData.WhyPerfect,
		Pros:                  append([]string(nil), d.Pros...),
		Budget:                d.ComparisonData.Budget,
		TravelTime:            travel,
		BestFor:               d.BestFor,
		HiddenGem:             d.HiddenGem,
		BestTimeToVisit:       d.BestTimeToVisit,
		QuickItineraryPreview: d.QuickItineraryPreview,
	}
}
