// Package itinerary builds retrieval-grounded prompts for full itineraries
// and follow-up answers.
package itinerary

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/neexbeast/getaway-planner/internal/preferences"
	"github.com/neexbeast/getaway-planner/internal/retrieval"
)

// DefaultK is how many corpus chunks ground each prompt.
const DefaultK = 3

// contextSeparator joins retrieved chunks inside a prompt.
const contextSeparator = "\n\n---\n\n"

// Generator is the text-generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generators turns a destination and preferences into generated text.
type Generators struct {
	search retrieval.Searcher
	gen    Generator
	k      int
}

// New constructs Generators. k ≤ 0 means DefaultK.
func New(search retrieval.Searcher, gen Generator, k int) *Generators {
	if k <= 0 {
		k = DefaultK
	}
	return &Generators{search: search, gen: gen, k: k}
}

type promptData struct {
	Context string
	Query   string
}

var itineraryTmpl = template.Must(template.New("itinerary").Parse(`CONTEXT FROM DESTINATION DATABASE:
{{.Context}}

USER QUERY:
{{.Query}}

Based on the user's preferences and the destination information provided, create a personalized weekend getaway recommendation. Include:

1. **Destination Recommendation & Why It's Perfect**
   - Why this destination matches their preferences

2. **Complete 2-3 Day Itinerary**
   Format the itinerary as a markdown table with columns: Day | Time | Activity | Details | Cost (₹)

   | Day | Time | Activity | Details | Cost (₹) |
   |-----|------|----------|---------|----------|
   | Day 1 | 8:00 AM | Breakfast | Cafe name - what to order | 500 |

3. **Budget Breakdown**
   Format as a markdown table:
   | Category | Details | Cost (₹) |
   |----------|---------|----------|
   | Transport | Round trip from the departure city | X |
   | Accommodation | Nights and where to stay | Y |
   | Food | All meals | Z |
   | Activities | Entry fees, sports | A |
   | Miscellaneous | Shopping, tips | B |
   | **Total** | | **XYZ** |

4. **Hidden Gems & Romantic Spots**
   - 3-5 offbeat locations
   - Romantic spots for couples
   - Local experiences

5. **Practical Tips**
   - Best time to visit
   - What to pack
   - Booking tips
   - Local customs

Make it personal, specific, and actionable. Use markdown formatting.`))

var chatTmpl = template.Must(template.New("chat").Parse(`CONTEXT FROM DESTINATION DATABASE:
{{.Context}}

USER QUESTION:
{{.Query}}

Answer only what was asked, concisely and specifically. Use the context above and the traveler details in the question. Do not repeat a full itinerary unless the user asks for one.`))

// Itinerary generates a detailed itinerary for destination.
func (g *Generators) Itinerary(ctx context.Context, destination string, p preferences.UserPreferences) (string, error) {
	query := ItineraryQuery(destination, p)
	return g.run(ctx, itineraryTmpl, query, query)
}

// Chat answers a follow-up. destination may be empty when nothing has been
// selected yet.
func (g *Generators) Chat(ctx context.Context, message, destination string, p preferences.UserPreferences) (string, error) {
	searchQuery := message
	if destination != "" {
		searchQuery = destination + " " + message
	}
	return g.run(ctx, chatTmpl, searchQuery, ChatQuery(message, destination, p))
}

func (g *Generators) run(ctx context.Context, tmpl *template.Template, searchQuery, query string) (string, error) {
	docs, err := g.search.Search(ctx, searchQuery, g.k)
	if err != nil {
		return "", fmt.Errorf("searching destination corpus: %w", err)
	}

	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		texts = append(texts, d.Text)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, promptData{Context: strings.Join(texts, contextSeparator), Query: query}); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}

	out, err := g.gen.Generate(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", tmpl.Name(), err)
	}
	return out, nil
}

// ItineraryQuery phrases the itinerary request for retrieval and generation.
func ItineraryQuery(destination string, p preferences.UserPreferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a detailed weekend getaway to %s for a couple", destination)
	writeTraveler(&b, p)
	return b.String()
}

// ChatQuery frames a follow-up question with what is already known.
func ChatQuery(message, destination string, p preferences.UserPreferences) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(message))
	if destination != "" {
		fmt.Fprintf(&b, "\n\nThe couple has chosen %s", destination)
		writeTraveler(&b, p)
	} else if !p.IsEmpty() {
		b.WriteString("\n\nTraveler details")
		writeTraveler(&b, p)
	}
	return b.String()
}

func writeTraveler(b *strings.Builder, p preferences.UserPreferences) {
	if p.HasDepartureCity() {
		fmt.Fprintf(b, ", travelling from %s", p.DepartureCity)
	}
	if p.HasBudget() {
		fmt.Fprintf(b, ", with a total budget of ₹%s", formatRupees(p.Budget))
	}
	if p.HasDates() {
		fmt.Fprintf(b, ", from %s to %s", p.StartDate, p.EndDate)
	}
	if p.HasVibe() {
		fmt.Fprintf(b, ", looking for %s", p.Vibe)
	}
	if p.HasInterests() {
		fmt.Fprintf(b, ", interested in %s", strings.Join(p.Interests, ", "))
	}
	b.WriteString(".")
}

// formatRupees groups digits the Indian way: 150000 -> 1,50,000.
func formatRupees(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}
