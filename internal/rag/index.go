// Package rag keeps an in-memory embedding index over uploaded study notes.
package rag

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTopK      = 5
	DefaultChunkSize = 1200
)

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Options configures an Index.
type Options struct {
	TopK      int
	ChunkSize int
	// Timeout bounds each embedding call. Zero means no extra bound.
	Timeout time.Duration
	Logger  *slog.Logger
}

type document struct {
	source string
	text   string
	vec    []float32
	norm   float64
}

// Index is a concurrency-safe vector index. Retrieval is a linear cosine
// scan, which is plenty for a single user's notes.
type Index struct {
	embedder Embedder
	opts     Options

	mu   sync.RWMutex
	docs []document
}

// NewIndex creates an empty index.
func NewIndex(embedder Embedder, opts Options) *Index {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Index{embedder: embedder, opts: opts}
}

func (ix *Index) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if ix.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ix.opts.Timeout)
		defer cancel()
	}
	vecs, err := ix.embedder.Embed(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(inputs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vecs), len(inputs))
	}
	return vecs, nil
}

// Add embeds texts and appends them under source.
func (ix *Index) Add(ctx context.Context, source string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	vecs, err := ix.embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", source, err)
	}

	docs := make([]document, len(texts))
	for i, text := range texts {
		docs[i] = document{source: source, text: text, vec: vecs[i], norm: norm(vecs[i])}
	}

	ix.mu.Lock()
	ix.docs = append(ix.docs, docs...)
	ix.mu.Unlock()
	return nil
}

// Ingest chunks text and adds the chunks. It returns the number of chunks.
func (ix *Index) Ingest(ctx context.Context, source, text string) (int, error) {
	chunks := Chunk(text, ix.opts.ChunkSize)
	if err := ix.Add(ctx, source, chunks); err != nil {
		return 0, err
	}
	ix.opts.Logger.Info("Ingested document", "source", source, "chunks", len(chunks))
	return len(chunks), nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Retrieve returns up to TopK chunks ranked by cosine similarity to query,
// most relevant first. An empty index returns nothing without embedding.
func (ix *Index) Retrieve(ctx context.Context, query string) ([]string, error) {
	ix.mu.RLock()
	empty := len(ix.docs) == 0
	ix.mu.RUnlock()
	if empty {
		return nil, nil
	}

	vecs, err := ix.embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	q := vecs[0]
	qn := norm(q)

	type scored struct {
		score float64
		text  string
	}

	ix.mu.RLock()
	results := make([]scored, 0, len(ix.docs))
	for _, d := range ix.docs {
		results = append(results, scored{score: cosine(q, qn, d.vec, d.norm), text: d.text})
	}
	ix.mu.RUnlock()

	slices.SortStableFunc(results, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	n := min(ix.opts.TopK, len(results))
	out := make([]string, n)
	for i := range n {
		out[i] = results[i].text
	}
	return out, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	n := min(len(a), len(b))
	var dot float64
	for i := range n {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
