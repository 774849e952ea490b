package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openAIDefaultURL       = "https://api.openai.com"
	openAIDefaultModel     = "gpt-4o-mini"
	openAIDefaultEmbedding = "text-embedding-3-small"
	openAITimeout          = 60 * time.Second
)

// OpenAIClient implements Generator and Embedder against any
// OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	baseURL        string
	apiKey         string
	opts           Options
	systemPrompt   string
	embeddingModel string
	client         *http.Client
}

// NewOpenAIClient constructs an OpenAIClient. An empty baseURL uses the
// public OpenAI API.
func NewOpenAIClient(baseURL, apiKey string, opts Options, embeddingModel string) *OpenAIClient {
	if baseURL == "" {
		baseURL = openAIDefaultURL
	}
	if opts.Model == "" {
		opts.Model = openAIDefaultModel
	}
	if embeddingModel == "" {
		embeddingModel = openAIDefaultEmbedding
	}
	return &OpenAIClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		opts:           opts,
		systemPrompt:   SystemPrompt,
		embeddingModel: embeddingModel,
		client:         &http.Client{Timeout: openAITimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Structured returns a Generator sharing this client's connection and model
// that sends no system prompt and runs at temperature 0, for prompts that
// expect machine-readable output.
func (c *OpenAIClient) Structured() Generator {
	cp := *c
	cp.systemPrompt = ""
	cp.opts.Temperature = 0
	return &cp
}

// Generate sends prompt after the system prompt, if any, and returns the reply.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	var msgs []chatMessage
	if c.systemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: c.systemPrompt})
	}
	req := chatRequest{
		Model:       c.opts.Model,
		Messages:    append(msgs, chatMessage{Role: "user", Content: prompt}),
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	var out chatResponse
	if err := c.post(ctx, "/v1/chat/completions", req, &out); err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai returned empty content")
	}
	return content, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embeddingResponse
	if err := c.post(ctx, "/v1/embeddings", embeddingRequest{Model: c.embeddingModel, Input: []string{text}}, &out); err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errors.New("openai returned an empty embedding")
	}
	return out.Data[0].Embedding, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, body, dst any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}
