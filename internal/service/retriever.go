package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// DefaultTopK is the number of chunks returned when the caller asks for k <= 0.
const DefaultTopK = 4

// Retriever ranks indexed chunks against a query vector. It scans every chunk,
// so cost grows linearly with the index size.
type Retriever struct {
	source port.IndexSource
}

func NewRetriever(source port.IndexSource) *Retriever {
	return &Retriever{source: source}
}

// Select returns the k chunks most similar to query, restricted to documents
// sharing a theme with filter when filter is non-empty. Ties keep index order.
func (r *Retriever) Select(ctx context.Context, query []float32, filter []domain.Theme, k int) ([]domain.ScoredChunk, error) {
	idx, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if k <= 0 {
		k = DefaultTopK
	}
	if idx.ChunkCount() > 0 && len(query) != idx.Meta.Dims {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", port.ErrDimensionMismatch, len(query), idx.Meta.Dims)
	}

	var pool []domain.ScoredChunk
	for i := range idx.Docs {
		doc := &idx.Docs[i]
		if len(filter) > 0 && !doc.HasAnyTheme(filter) {
			continue
		}
		for j := range doc.Chunks {
			ch := &doc.Chunks[j]
			pool = append(pool, domain.ScoredChunk{
				Document: doc,
				Chunk:    ch,
				Score:    CosineSim(query, ch.Embedding),
			})
		}
	}

	sort.SliceStable(pool, func(a, b int) bool {
		return pool[a].Score > pool[b].Score
	})
	if len(pool) > k {
		pool = pool[:k]
	}
	return pool, nil
}

// Index returns the loaded index.
func (r *Retriever) Index(ctx context.Context) (*domain.VectorIndex, error) {
	return r.source.Load(ctx)
}

// CosineSim returns dot(a,b) / (|a|·|b|). A zero magnitude product is replaced
// by 1, so a zero vector scores 0. Vectors must have equal length.
func CosineSim(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		denom = 1
	}
	return dot / denom
}

// UniqueDocuments lists the owning documents of results in first-seen order,
// each once.
func UniqueDocuments(results []domain.ScoredChunk) []*domain.Document {
	seen := make(map[*domain.Document]bool, len(results))
	var out []*domain.Document
	for _, r := range results {
		if seen[r.Document] {
			continue
		}
		seen[r.Document] = true
		out = append(out, r.Document)
	}
	return out
}
