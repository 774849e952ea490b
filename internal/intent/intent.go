// Package intent classifies chat messages with ordered, deterministic rules.
package intent

import (
	"regexp"
	"strings"

	"github.com/neexbeast/getaway-planner/internal/catalog"
)

// Label is the outcome of classification.
type Label string

const (
	// PlanNewTrip starts (or restarts) preference collection.
	PlanNewTrip Label = "plan_new_trip"
	// SelectDestination picks a catalog destination by name.
	SelectDestination Label = "select_destination"
	// FollowUp is a question about the itinerary already shown.
	FollowUp Label = "follow_up"
	// ContinuePlan answers the questions asked for a named destination
	// whose itinerary has not been issued yet.
	ContinuePlan Label = "continue_plan"
	// GeneralQuestion is a short travel question outside any session.
	GeneralQuestion Label = "general_question"
	// Comparison is the fallback: rank the catalog.
	Comparison Label = "comparison"
)

// State is the part of the conversation the rules look at.
type State struct {
	SelectedDestination string
	HasSeenItinerary    bool
}

// InItinerarySession reports whether a detailed itinerary is on screen.
func (s State) InItinerarySession() bool {
	return s.HasSeenItinerary && s.SelectedDestination != ""
}

// PlanPending reports whether a destination was named in a plan request and
// is still waiting for the preferences needed to issue its itinerary.
func (s State) PlanPending() bool {
	return !s.HasSeenItinerary && s.SelectedDestination != ""
}

// Result is the label plus the destination a selection resolved to.
type Result struct {
	Label       Label
	Destination string
	// Ambiguous is set when a selection keyword was present but no
	// catalog destination matched.
	Ambiguous bool
}

// GeneralQuestionMaxTokens bounds what counts as a short question.
const GeneralQuestionMaxTokens = 15

var planKeywords = []string{
	"plan another trip",
	"plan a new trip",
	"plan a different trip",
	"another trip",
	"new trip",
	"new getaway",
	"another getaway",
	"different destination",
	"somewhere else",
	"start over",
	"i want to go to",
	"suggest",
	"show me",
}

var planPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^plan\b.*\btrip\b`),
	regexp.MustCompile(`^plan\s+\w+`),
	regexp.MustCompile(`\bhelp me (plan|create)\b`),
	regexp.MustCompile(`\b(create|make|build|generate)\b.*\b(itinerary|plan)\b`),
	regexp.MustCompile(`^(what|how) about\b`),
	regexp.MustCompile(`^(suggest|recommend|show)\b`),
	regexp.MustCompile(`\b(trip|visit|travel) to\b`),
}

var selectionKeywords = []string{"choose", "select", "i want", "pick", "go with", "decide on"}

var questionWords = map[string]struct{}{
	"what": {}, "where": {}, "when": {}, "how": {}, "which": {}, "why": {},
	"is": {}, "are": {}, "can": {}, "tell": {}, "suggest": {}, "recommend": {},
}

type rule struct {
	label Label
	match func(c *Classifier, msg string, st State, res *Result) bool
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{PlanNewTrip, func(_ *Classifier, msg string, _ State, _ *Result) bool { return IsPlanRequest(msg) }},
	{SelectDestination, (*Classifier).matchSelection},
	{FollowUp, func(_ *Classifier, _ string, st State, _ *Result) bool { return st.InItinerarySession() }},
	{ContinuePlan, func(_ *Classifier, _ string, st State, _ *Result) bool { return st.PlanPending() }},
	{GeneralQuestion, func(_ *Classifier, msg string, st State, _ *Result) bool {
		return !st.InItinerarySession() && IsGeneralQuestion(msg)
	}},
	{Comparison, func(*Classifier, string, State, *Result) bool { return true }},
}

// Classifier applies the rule table against a catalog.
type Classifier struct {
	catalog *catalog.Catalog
}

// NewClassifier constructs a Classifier.
func NewClassifier(c *catalog.Catalog) *Classifier {
	return &Classifier{catalog: c}
}

// Classify labels message given the conversation state.
func (c *Classifier) Classify(message string, st State) Result {
	msg := normalize(message)
	var res Result
	for _, r := range rules {
		if r.match(c, msg, st, &res) {
			res.Label = r.label
			return res
		}
	}
	res.Label = Comparison
	return res
}

func (c *Classifier) matchSelection(msg string, _ State, res *Result) bool {
	if !HasSelectionKeyword(msg) {
		return false
	}
	d, ok := c.catalog.FindInText(msg)
	if !ok {
		res.Ambiguous = true
		return false
	}
	res.Destination = d.Name
	return true
}

// IsPlanRequest reports whether msg asks to start planning a trip.
func IsPlanRequest(message string) bool {
	msg := normalize(message)
	for _, k := range planKeywords {
		if strings.Contains(msg, k) {
			return true
		}
	}
	for _, p := range planPatterns {
		if p.MatchString(msg) {
			return true
		}
	}
	return false
}

// HasSelectionKeyword reports whether msg contains a selection verb.
func HasSelectionKeyword(message string) bool {
	msg := normalize(message)
	for _, k := range selectionKeywords {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

// IsGeneralQuestion reports whether msg is short and opens with a question word.
func IsGeneralQuestion(message string) bool {
	tokens := strings.Fields(normalize(message))
	if len(tokens) == 0 || len(tokens) >= GeneralQuestionMaxTokens {
		return false
	}
	first := strings.TrimSuffix(strings.TrimRight(tokens[0], "?!.,"), "'s")
	_, ok := questionWords[first]
	return ok
}

// TokenCount returns the number of whitespace-separated tokens in message.
func TokenCount(message string) int {
	return len(strings.Fields(message))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
