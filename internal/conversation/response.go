package conversation

import (
	"encoding/json"

	"github.com/neexbeast/getaway-planner/internal/intent"
	"github.com/neexbeast/getaway-planner/internal/match"
	"github.com/neexbeast/getaway-planner/internal/preferences"
)

// Mode tells the UI what to render.
type Mode string

const (
	ModeComparison        Mode = "comparison"
	ModeDetailed          Mode = "detailed"
	ModeChat              Mode = "chat"
	ModePreferencesNeeded Mode = "preferences_needed"
)

// Context is the per-session state the router reads and hands back updated.
// The caller owns it between messages.
type Context struct {
	UserPreferences     preferences.UserPreferences `json:"userPreferences"`
	SelectedDestination string                      `json:"selectedDestination,omitempty"`
	HasSeenItinerary    bool                        `json:"hasSeenItinerary"`
}

// InItinerarySession reports whether a detailed itinerary has been shown for
// the selected destination.
func (c Context) InItinerarySession() bool {
	return c.state().InItinerarySession()
}

func (c Context) state() intent.State {
	return intent.State{
		SelectedDestination: c.SelectedDestination,
		HasSeenItinerary:    c.HasSeenItinerary,
	}
}

// Response is the router's answer to one message. Only the fields belonging
// to Mode are meaningful.
type Response struct {
	Mode Mode

	// comparison, detailed, preferences_needed
	Message string
	// comparison
	Destinations []match.ScoredDestination
	// detailed, chat, preferences_needed (when a destination was named)
	Destination string
	// detailed
	Itinerary    string
	ResetHistory bool
	// chat
	Reply string
	// preferences_needed
	MissingFields      []preferences.Field
	PartialPreferences preferences.UserPreferences

	// Context is the session state after this message.
	Context Context
}

// Fields returns the wire representation: a mode discriminator plus the
// payload of that mode.
func (r *Response) Fields() map[string]any {
	out := map[string]any{
		"mode":    r.Mode,
		"context": r.Context,
	}
	switch r.Mode {
	case ModeComparison:
		ds := r.Destinations
		if ds == nil {
			ds = []match.ScoredDestination{}
		}
		out["message"] = r.Message
		out["destinations"] = ds
	case ModeDetailed:
		out["message"] = r.Message
		out["destination"] = r.Destination
		out["itinerary"] = r.Itinerary
		out["resetHistory"] = r.ResetHistory
	case ModeChat:
		var dest any
		if r.Destination != "" {
			dest = r.Destination
		}
		out["destination"] = dest
		out["response"] = r.Reply
	case ModePreferencesNeeded:
		missing := r.MissingFields
		if missing == nil {
			missing = []preferences.Field{}
		}
		out["message"] = r.Message
		out["missingFields"] = missing
		out["partialPreferences"] = r.PartialPreferences
		if r.Destination != "" {
			out["destination"] = r.Destination
		}
	}
	return out
}

// MarshalJSON encodes the payload returned by Fields.
func (r *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}
