package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// embedConcurrency bounds in-flight embedding calls while building.
const embedConcurrency = 4

type chunk struct {
	doc       Document
	embedding []float32
}

// Index is an in-memory vector index built once from the corpus. When no
// embedder is configured, or the query cannot be embedded, it falls back to
// keyword overlap.
type Index struct {
	embedder Embedder
	log      *slog.Logger

	mu     sync.RWMutex
	chunks []chunk
	ready  atomic.Bool
}

// NewIndex constructs an empty Index. embedder may be nil.
func NewIndex(embedder Embedder, log *slog.Logger) *Index {
	return &Index{embedder: embedder, log: log}
}

// Ready reports whether Build has completed.
func (ix *Index) Ready() bool { return ix.ready.Load() }

// Build splits docs into chunks and embeds them. A chunk whose embedding
// fails stays searchable by keyword only.
func (ix *Index) Build(ctx context.Context, docs []Document) error {
	var chunks []chunk
	for _, d := range docs {
		for _, text := range Split(d.Text, DefaultChunkSize, DefaultChunkOverlap) {
			chunks = append(chunks, chunk{doc: Document{Text: text, SourceID: d.SourceID}})
		}
	}
	if len(chunks) == 0 {
		return fmt.Errorf("building index: corpus produced no chunks")
	}

	if ix.embedder != nil {
		var failed atomic.Int64
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(embedConcurrency)
		for i := range chunks {
			i := i
			g.Go(func() error {
				vec, err := ix.embedder.Embed(gCtx, chunks[i].doc.Text)
				if err != nil {
					failed.Add(1)
					ix.log.Warn("embedding chunk failed", "source", chunks[i].doc.SourceID, "err", err)
					return nil
				}
				chunks[i].embedding = vec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("embedding corpus: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("embedding corpus: %w", err)
		}
		ix.log.Info("corpus embedded", "chunks", len(chunks), "failed", failed.Load())
	}

	ix.mu.Lock()
	ix.chunks = chunks
	ix.mu.Unlock()
	ix.ready.Store(true)
	return nil
}

type scored struct {
	doc   Document
	score float64
}

// Search returns up to k chunks ordered by descending relevance.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if !ix.Ready() {
		return nil, ErrIndexNotReady
	}
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return []Document{}, nil
	}

	ix.mu.RLock()
	chunks := ix.chunks
	ix.mu.RUnlock()

	var results []scored
	if ix.embedder != nil {
		qvec, err := ix.embedder.Embed(ctx, query)
		if err != nil {
			ix.log.Warn("query embedding failed, using keyword search", "err", err)
		} else {
			results = vectorScores(chunks, qvec)
		}
	}
	if results == nil {
		results = keywordScores(chunks, query)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if k > len(results) {
		k = len(results)
	}
	out := make([]Document, 0, k)
	for _, r := range results[:k] {
		out = append(out, r.doc)
	}
	return out, nil
}

func vectorScores(chunks []chunk, qvec []float32) []scored {
	out := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		if len(c.embedding) == 0 || len(c.embedding) != len(qvec) {
			continue
		}
		out = append(out, scored{doc: c.doc, score: cosine(qvec, c.embedding)})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func keywordScores(chunks []chunk, query string) []scored {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		t = strings.Trim(t, ".,!?;:'\"()")
		if len(t) > 2 {
			terms = append(terms, t)
		}
	}

	out := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		text := strings.ToLower(c.doc.Text)
		hits := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				hits++
			}
		}
		out = append(out, scored{doc: c.doc, score: float64(hits)})
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := 0; i < len(a) && i < len(b); i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
