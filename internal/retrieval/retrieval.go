// Package retrieval is the semantic search collaborator over the
// destination document corpus.
package retrieval

import (
	"context"
	"errors"
)

// ErrIndexNotReady is returned when searching before the index is built.
var ErrIndexNotReady = errors.New("retrieval index is not ready")

// Document is a retrievable piece of text and the corpus file it came from.
type Document struct {
	Text     string `json:"text"`
	SourceID string `json:"sourceId"`
}

// Searcher returns the k documents most relevant to query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
