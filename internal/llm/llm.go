// Package llm provides the text-generation and embedding collaborators.
package llm

import "context"

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options tunes generation.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// SystemPrompt sets the planner persona for every generation call.
const SystemPrompt = `You are an expert weekend getaway planner specializing in romantic and adventurous trips for couples in India. You have deep knowledge of offbeat destinations, hidden gems, and authentic local experiences.

Your expertise includes:
- Weekend destinations across India (2-3 day trips)
- Budget planning (₹10,000 - ₹50,000 range for couples)
- Romantic spots and couple-friendly activities
- Hidden gems that aren't touristy
- Practical travel advice (best time, booking tips, packing)

Response style:
- Warm, enthusiastic, insider-expert tone, like a well-traveled friend
- Highly specific and actionable: real places, realistic costs, timing
- Transparent about budget breakdown

Answer appropriately:
- A specific question ("where to stay?", "budget?") gets only that information, concisely
- A broad request ("plan a weekend trip") gets the complete itinerary
- Never repeat an entire itinerary for a follow-up question

Avoid generic listicles, vague suggestions, tourist traps and unrealistic budgets or timing.`
