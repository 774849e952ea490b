package preferences

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for trip dates.
const DateLayout = "2006-01-02"

// ErrInvalidDates is returned when trip dates are malformed or out of order.
var ErrInvalidDates = errors.New("invalid trip dates")

// Field names a preference slot the router can ask the user about.
type Field string

const (
	FieldVibe          Field = "vibe"
	FieldDepartureCity Field = "departureCity"
	FieldBudget        Field = "budget"
	FieldDates         Field = "dates"
	FieldInterests     Field = "interests"
)

// AllFields lists every slot in the order questions are asked.
var AllFields = []Field{FieldVibe, FieldDepartureCity, FieldBudget, FieldDates, FieldInterests}

// RequiredFields returns the slots needed before an itinerary can be issued.
// Naming a destination substitutes for a vibe preference.
func RequiredFields(destinationNamed bool) []Field {
	if destinationNamed {
		return []Field{FieldDepartureCity, FieldBudget, FieldDates, FieldInterests}
	}
	return AllFields
}

// UserPreferences is what the traveler has told us so far.
// A zero Budget means no budget was given.
type UserPreferences struct {
	Vibe          string   `json:"vibe,omitempty"`
	DepartureCity string   `json:"departureCity,omitempty"`
	Budget        int      `json:"budget,omitempty"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	Interests     []string `json:"interests,omitempty"`
}

// HasVibe, HasDepartureCity, HasBudget, HasDates and HasInterests report
// whether the matching slot carries a usable value. Dates count only as a pair.
func (p UserPreferences) HasVibe() bool          { return strings.TrimSpace(p.Vibe) != "" }
func (p UserPreferences) HasDepartureCity() bool { return strings.TrimSpace(p.DepartureCity) != "" }
func (p UserPreferences) HasBudget() bool        { return p.Budget > 0 }
func (p UserPreferences) HasDates() bool         { return p.StartDate != "" && p.EndDate != "" }
func (p UserPreferences) HasInterests() bool     { return len(p.Interests) > 0 }

// Has reports whether the given slot is filled.
func (p UserPreferences) Has(f Field) bool {
	switch f {
	case FieldVibe:
		return p.HasVibe()
	case FieldDepartureCity:
		return p.HasDepartureCity()
	case FieldBudget:
		return p.HasBudget()
	case FieldDates:
		return p.HasDates()
	case FieldInterests:
		return p.HasInterests()
	}
	return false
}

// Missing returns the subset of required slots that are not filled, in the
// order given.
func (p UserPreferences) Missing(required []Field) []Field {
	var out []Field
	for _, f := range required {
		if !p.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// IsEmpty reports whether no slot is filled.
func (p UserPreferences) IsEmpty() bool {
	return len(p.Missing(AllFields)) == len(AllFields) && p.StartDate == "" && p.EndDate == ""
}

// Validate checks that any dates given parse and that the end date falls
// after the start date when both are present.
func (p UserPreferences) Validate() error {
	var start, end time.Time
	var err error
	if p.StartDate != "" {
		if start, err = time.Parse(DateLayout, p.StartDate); err != nil {
			return fmt.Errorf("%w: start date %q", ErrInvalidDates, p.StartDate)
		}
	}
	if p.EndDate != "" {
		if end, err = time.Parse(DateLayout, p.EndDate); err != nil {
			return fmt.Errorf("%w: end date %q", ErrInvalidDates, p.EndDate)
		}
	}
	if p.HasDates() && !end.After(start) {
		return fmt.Errorf("%w: end date %s is not after start date %s", ErrInvalidDates, p.EndDate, p.StartDate)
	}
	return nil
}

// Merge fills the empty slots of existing from update and returns the result.
// A slot that existing already holds is never replaced. Dates are taken from
// update only when the merged pair still validates.
func Merge(existing, update UserPreferences) UserPreferences {
	out := existing
	out.Interests = append([]string(nil), existing.Interests...)

	if !out.HasVibe() && update.HasVibe() {
		out.Vibe = strings.TrimSpace(update.Vibe)
	}
	if !out.HasDepartureCity() && update.HasDepartureCity() {
		out.DepartureCity = strings.TrimSpace(update.DepartureCity)
	}
	if !out.HasBudget() && update.HasBudget() {
		out.Budget = update.Budget
	}
	if !out.HasInterests() && update.HasInterests() {
		out.Interests = append([]string(nil), update.Interests...)
	}

	candidate := out
	if candidate.StartDate == "" {
		candidate.StartDate = update.StartDate
	}
	if candidate.EndDate == "" {
		candidate.EndDate = update.EndDate
	}
	if candidate.Validate() == nil {
		out.StartDate, out.EndDate = candidate.StartDate, candidate.EndDate
	}

	return out
}
