// Package conversation decides, for each chat message, whether to ask for
// preferences, compare destinations, write an itinerary or answer a
// follow-up.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neexbeast/getaway-planner/internal/catalog"
	"github.com/neexbeast/getaway-planner/internal/intent"
	"github.com/neexbeast/getaway-planner/internal/match"
	"github.com/neexbeast/getaway-planner/internal/preferences"
)

// ErrEmptyMessage is returned for a blank message before any collaborator
// is called.
var ErrEmptyMessage = errors.New("message is required")

// SubstantialTokens is the token count above which a plan request is worth
// running through the extractor.
const SubstantialTokens = 10

// Extractor fills missing preference slots from free text.
type Extractor interface {
	Extract(ctx context.Context, message string, missing []preferences.Field) (preferences.UserPreferences, error)
}

// Generators produce itineraries and follow-up answers.
type Generators interface {
	Itinerary(ctx context.Context, destination string, p preferences.UserPreferences) (string, error)
	Chat(ctx context.Context, message, destination string, p preferences.UserPreferences) (string, error)
}

// Router is stateless between calls; all session state travels in Context.
type Router struct {
	catalog    *catalog.Catalog
	classifier *intent.Classifier
	scorer     *match.Scorer
	extractor  Extractor
	generators Generators
	log        *slog.Logger
}

// NewRouter constructs a Router over an immutable catalog.
func NewRouter(c *catalog.Catalog, scorer *match.Scorer, extractor Extractor, generators Generators, log *slog.Logger) *Router {
	return &Router{
		catalog:    c,
		classifier: intent.NewClassifier(c),
		scorer:     scorer,
		extractor:  extractor,
		generators: generators,
		log:        log,
	}
}

// HandleMessage routes one message. Collaborator errors are returned wrapped
// and never retried.
func (r *Router) HandleMessage(ctx context.Context, message string, cc Context) (*Response, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	res := r.classifier.Classify(msg, cc.state())
	if res.Ambiguous {
		r.log.Info("selection keyword without a known destination", "message", msg)
	}
	r.log.Debug("message classified", "label", res.Label, "destination", res.Destination)

	switch res.Label {
	case intent.PlanNewTrip:
		return r.planTrip(ctx, msg, cc)
	case intent.SelectDestination:
		return r.selectDestination(ctx, msg, res.Destination, cc)
	case intent.FollowUp:
		return r.chat(ctx, msg, cc.SelectedDestination, cc)
	case intent.ContinuePlan:
		return r.continuePlan(ctx, msg, cc)
	case intent.GeneralQuestion:
		return r.chat(ctx, msg, "", cc)
	default:
		return r.compare(cc.UserPreferences), nil
	}
}

func (r *Router) planTrip(ctx context.Context, msg string, cc Context) (*Response, error) {
	named, hasName := r.catalog.FindInText(msg)

	if !hasName && intent.TokenCount(msg) <= SubstantialTokens {
		return preferencesNeeded("", preferences.AllFields, preferences.UserPreferences{}), nil
	}

	dest := ""
	if hasName {
		dest = named.Name
	}
	return r.completePlan(ctx, msg, dest, cc)
}

// continuePlan treats msg as the answer to the questions asked for the
// pending destination.
func (r *Router) continuePlan(ctx context.Context, msg string, cc Context) (*Response, error) {
	d, ok := r.catalog.Get(cc.SelectedDestination)
	if !ok {
		r.log.Warn("pending destination not in catalog", "destination", cc.SelectedDestination)
		return r.compare(cc.UserPreferences), nil
	}
	return r.completePlan(ctx, msg, d.Name, cc)
}

// completePlan extracts whatever required slots are still missing from msg
// and either asks for the rest or answers with an itinerary (destination
// named) or a comparison.
func (r *Router) completePlan(ctx context.Context, msg, destination string, cc Context) (*Response, error) {
	required := preferences.RequiredFields(destination != "")
	prefs := cc.UserPreferences
	if missing := prefs.Missing(required); len(missing) > 0 {
		extracted, err := r.extractor.Extract(ctx, msg, missing)
		if err != nil {
			return nil, err
		}
		prefs = preferences.Merge(prefs, extracted)
	}

	if missing := prefs.Missing(required); len(missing) > 0 {
		return preferencesNeeded(destination, missing, prefs), nil
	}

	if destination != "" {
		return r.detailed(ctx, destination, prefs, cc)
	}
	return r.compare(prefs), nil
}

func (r *Router) selectDestination(ctx context.Context, msg, destination string, cc Context) (*Response, error) {
	if cc.InItinerarySession() && strings.EqualFold(destination, cc.SelectedDestination) {
		return r.chat(ctx, msg, cc.SelectedDestination, cc)
	}
	return r.detailed(ctx, destination, cc.UserPreferences, cc)
}

func (r *Router) detailed(ctx context.Context, destination string, prefs preferences.UserPreferences, cc Context) (*Response, error) {
	text, err := r.generators.Itinerary(ctx, destination, prefs)
	if err != nil {
		return nil, fmt.Errorf("generating itinerary for %s: %w", destination, err)
	}

	return &Response{
		Mode:         ModeDetailed,
		Message:      fmt.Sprintf("Here's your weekend itinerary for %s!", destination),
		Destination:  destination,
		Itinerary:    text,
		ResetHistory: cc.InItinerarySession() && !strings.EqualFold(destination, cc.SelectedDestination),
		Context: Context{
			UserPreferences:     prefs,
			SelectedDestination: destination,
			HasSeenItinerary:    true,
		},
	}, nil
}

func (r *Router) chat(ctx context.Context, msg, destination string, cc Context) (*Response, error) {
	reply, err := r.generators.Chat(ctx, msg, destination, cc.UserPreferences)
	if err != nil {
		return nil, fmt.Errorf("answering follow-up: %w", err)
	}
	return &Response{
		Mode:        ModeChat,
		Destination: destination,
		Reply:       reply,
		Context:     cc,
	}, nil
}

func (r *Router) compare(prefs preferences.UserPreferences) *Response {
	ranked := r.scorer.Rank(r.catalog.All(), prefs)
	return &Response{
		Mode:         ModeComparison,
		Message:      comparisonMessage(len(ranked)),
		Destinations: ranked,
		Context:      Context{UserPreferences: prefs},
	}
}

func preferencesNeeded(destination string, missing []preferences.Field, partial preferences.UserPreferences) *Response {
	return &Response{
		Mode:               ModePreferencesNeeded,
		Message:            questionsMessage(destination, missing),
		Destination:        destination,
		MissingFields:      missing,
		PartialPreferences: partial,
		Context: Context{
			UserPreferences:     partial,
			SelectedDestination: destination,
		},
	}
}
