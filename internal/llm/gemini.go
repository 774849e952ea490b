package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultGeminiModel     = "gemini-2.0-flash"
	defaultGeminiEmbedding = "text-embedding-004"
)

// ContentGenerator is the part of *genai.GenerativeModel the client calls.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements Generator and Embedder on Google's Gemini models.
type GeminiClient struct {
	client     *genai.Client
	model      ContentGenerator
	structured ContentGenerator
	embedder   *genai.EmbeddingModel
}

// NewGeminiClient creates a Gemini client for generation and embeddings.
// Generation runs under the planner system prompt; Structured uses a second
// handle on the same model without it.
func NewGeminiClient(ctx context.Context, apiKey string, opts Options, embeddingModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	name := opts.Model
	if name == "" {
		name = defaultGeminiModel
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(opts.Temperature)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemPrompt)}}

	structured := client.GenerativeModel(name)
	structured.SetTemperature(0)
	structured.ResponseMIMEType = "application/json"

	if embeddingModel == "" {
		embeddingModel = defaultGeminiEmbedding
	}

	return &GeminiClient{
		client:     client,
		model:      model,
		structured: structured,
		embedder:   client.EmbeddingModel(embeddingModel),
	}, nil
}

// NewGeminiClientWithModels wraps existing content generators. Embed is
// unavailable on the result.
func NewGeminiClientWithModels(model, structured ContentGenerator) *GeminiClient {
	return &GeminiClient{model: model, structured: structured}
}

// Close releases the underlying client.
func (g *GeminiClient) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Generate sends prompt and returns the text of the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return generateText(ctx, g.model, prompt)
}

// Structured returns a Generator without the planner system prompt, at
// temperature 0 and asking for a JSON response.
func (g *GeminiClient) Structured() Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return generateText(ctx, g.structured, prompt)
	})
}

func generateText(ctx context.Context, m ContentGenerator, prompt string) (string, error) {
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("gemini returned empty text")
	}
	return out, nil
}

// Embed returns the embedding vector for text.
func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.embedder == nil {
		return nil, errors.New("gemini embedding model not configured")
	}
	res, err := g.embedder.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("gemini returned an empty embedding")
	}
	return res.Embedding.Values, nil
}
