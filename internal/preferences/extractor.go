package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Generator is the text-generation capability the extractor delegates to.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Extractor fills preference slots from free text with one LLM call.
type Extractor struct {
	gen Generator
	log *slog.Logger
	now func() time.Time
}

// NewExtractor constructs an Extractor.
func NewExtractor(gen Generator, log *slog.Logger) *Extractor {
	return &Extractor{gen: gen, log: log, now: time.Now}
}

// Extract asks the generator for the given missing slots and parses whatever
// it returns. A generator error is returned as is; an unusable reply yields
// empty preferences and no error. With nothing missing no call is made.
func (e *Extractor) Extract(ctx context.Context, message string, missing []Field) (UserPreferences, error) {
	if len(missing) == 0 {
		return UserPreferences{}, nil
	}

	raw, err := e.gen.Generate(ctx, e.prompt(message, missing))
	if err != nil {
		return UserPreferences{}, fmt.Errorf("extracting preferences: %w", err)
	}

	got, ok := ParseExtraction(raw)
	if !ok {
		e.log.Warn("preference extraction returned no usable JSON", "missing", missing)
		return UserPreferences{}, nil
	}
	return got, nil
}

var fieldInstructions = map[Field]string{
	FieldVibe:          `"vibe": one of "Beach Bliss", "Mountain Escape", "Adventure Rush", "Peaceful Retreat"`,
	FieldDepartureCity: `"departureCity": the city the couple travels from, e.g. "Mumbai"`,
	FieldBudget:        `"budget": total budget in rupees as an integer, e.g. 30000`,
	FieldDates:         `"startDate" and "endDate": trip dates as YYYY-MM-DD`,
	FieldInterests:     `"interests": array drawn from "Foodie", "Instagram-worthy", "Culture", "Water Sports", "Romantic Sunsets", "Nightlife", "Wellness", "Nature"`,
}

func (e *Extractor) prompt(message string, missing []Field) string {
	var b strings.Builder
	b.WriteString("Extract travel preferences from the message below.\n")
	fmt.Fprintf(&b, "Today's date is %s.\n\n", e.now().Format(DateLayout))
	b.WriteString("Only these fields are needed:\n")
	for _, f := range missing {
		b.WriteString("- ")
		b.WriteString(fieldInstructions[f])
		b.WriteString("\n")
	}
	b.WriteString("\nReturn a single JSON object containing only the fields you can extract with confidence. ")
	b.WriteString("Leave out any field the message does not state. Return {} if nothing applies. No prose.\n\n")
	b.WriteString("Message: ")
	b.WriteString(message)
	return b.String()
}

// ParseExtraction decodes the first well-formed JSON object found in raw.
// Individual fields that fail to decode are dropped. ok is false when raw
// contains no JSON object at all.
func ParseExtraction(raw string) (UserPreferences, bool) {
	obj, ok := firstJSONObject(raw)
	if !ok {
		return UserPreferences{}, false
	}

	var p UserPreferences
	p.Vibe = decodeString(obj["vibe"])
	p.DepartureCity = decodeString(obj["departureCity"])
	p.Budget = decodeBudget(obj["budget"])
	p.Interests = decodeInterests(obj["interests"])

	start, end := decodeString(obj["startDate"]), decodeString(obj["endDate"])
	if start != "" && end != "" {
		if (UserPreferences{StartDate: start, EndDate: end}).Validate() == nil {
			p.StartDate, p.EndDate = start, end
		}
	}

	return p, true
}

func firstJSONObject(s string) (map[string]json.RawMessage, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		var m map[string]json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&m); err == nil {
			return m, true
		}
	}
	return nil, false
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// MaxBudget is the largest amount accepted as a weekend budget (₹1 crore).
// Anything above it is treated as a misread rather than stored.
const MaxBudget = 10_000_000

func decodeBudget(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return boundedAmount(f)
	}
	return ParseAmount(decodeString(raw))
}

var amountPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(k|thousand|l|lakhs?|lacs?|cr|crores?)?\b`)

var amountMultipliers = map[string]float64{
	"k": 1e3, "thousand": 1e3,
	"l": 1e5, "lakh": 1e5, "lakhs": 1e5, "lac": 1e5, "lacs": 1e5,
	"cr": 1e7, "crore": 1e7, "crores": 1e7,
}

// ParseAmount reads a rupee amount such as "₹30,000", "30k", "30.5k" or
// "₹1.5 lakh". For a range ("25,000-30,000") the upper bound is returned.
// It returns 0 when no amount is found or the amount is out of range.
func ParseAmount(s string) int {
	best := 0
	for _, m := range amountPattern.FindAllStringSubmatch(strings.ToLower(s), -1) {
		f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if mult, ok := amountMultipliers[m[2]]; ok {
			f *= mult
		}
		if n := boundedAmount(f); n > best {
			best = n
		}
	}
	return best
}

func boundedAmount(f float64) int {
	if math.IsNaN(f) || f <= 0 || f > MaxBudget {
		return 0
	}
	return int(math.Round(f))
}

func decodeInterests(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		s := decodeString(raw)
		if s == "" {
			return nil
		}
		list = strings.Split(s, ",")
	}

	out := make([]string, 0, len(list))
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
