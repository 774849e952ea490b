package catalog

// MatchCriteria lists the vibes and interests a destination is a good fit for.
type MatchCriteria struct {
	Vibes     []string `json:"vibes"`
	Interests []string `json:"interests"`
}

// ComparisonData holds the attributes shown on a comparison card.
// Budget embeds a currency amount ("₹32,000"); TravelTime maps a departure
// city to a duration string ("8 hours") or "Not recommended".
type ComparisonData struct {
	Budget     string            `json:"budget"`
	TravelTime map[string]string `json:"travelTime"`
	WhyPerfect string            `json:"whyPerfect"`
}

// Destination is a single catalog record. Records are immutable once loaded.
type Destination struct {
	Name                  string         `json:"name"`
	Tagline               string         `json:"tagline"`
	MatchCriteria         MatchCriteria  `json:"matchCriteria"`
	ComparisonData        ComparisonData `json:"comparisonData"`
	Pros                  []string       `json:"pros"`
	BestFor               string         `json:"bestFor"`
	HiddenGem             string         `json:"hiddenGem"`
	BestTimeToVisit       string         `json:"bestTimeToVisit"`
	QuickItineraryPreview string         `json:"quickItineraryPreview"`
}
