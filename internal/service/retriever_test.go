package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

func chunkIDs(hits []domain.ScoredChunk) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.Chunk.ID
	}
	return ids
}

func TestCosineSim(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSim([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSim([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSim([]float32{1, 0}, []float32{-3, 0}), 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, CosineSim([]float32{1, 0}, []float32{1, 1}), 1e-9)

	// zero vectors score 0 instead of NaN
	assert.Equal(t, 0.0, CosineSim([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSim([]float32{0, 0}, []float32{0, 0}))
}

func TestSelect_RanksByScore(t *testing.T) {
	r := NewRetriever(&memIndex{idx: testIndex()})

	hits, err := r.Select(context.Background(), []float32{1, 0}, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"ai-doc-0", "ai-doc-1", "mixed-0"}, chunkIDs(hits))
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestSelect_DefaultAndShortK(t *testing.T) {
	r := NewRetriever(&memIndex{idx: testIndex()})

	hits, err := r.Select(context.Background(), []float32{1, 0}, nil, 0)
	require.NoError(t, err)
	assert.Len(t, hits, DefaultTopK)

	hits, err = r.Select(context.Background(), []float32{1, 0}, nil, 50)
	require.NoError(t, err)
	assert.Len(t, hits, 4)
}

func TestSelect_ThemeFilter(t *testing.T) {
	r := NewRetriever(&memIndex{idx: testIndex()})

	hits, err := r.Select(context.Background(), []float32{1, 0}, []domain.Theme{domain.ThemeWeb3}, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"web3-doc-0"}, chunkIDs(hits))

	hits, err = r.Select(context.Background(), []float32{0, 1}, []domain.Theme{domain.ThemeUXUI}, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"mixed-0"}, chunkIDs(hits))

	// an empty filter means no filtering
	hits, err = r.Select(context.Background(), []float32{0, 1}, []domain.Theme{}, 4)
	require.NoError(t, err)
	assert.Len(t, hits, 4)
}

func TestSelect_FilterExcludesAll(t *testing.T) {
	idx := testIndex()
	for i := range idx.Docs {
		idx.Docs[i].Themes = []domain.Theme{domain.ThemeAI}
	}
	r := NewRetriever(&memIndex{idx: idx})

	hits, err := r.Select(context.Background(), []float32{1, 0}, []domain.Theme{domain.ThemeWeb3}, 4)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSelect_TwoDocumentExample(t *testing.T) {
	idx := &domain.VectorIndex{
		Meta: domain.IndexMeta{Dims: 2},
		Docs: []domain.Document{
			{ID: "a", Title: "Doc A", Themes: []domain.Theme{domain.ThemeAI},
				Chunks: []domain.Chunk{{ID: "a-0", Text: "alpha", Embedding: []float32{1, 0}}}},
			{ID: "b", Title: "Doc B", Themes: []domain.Theme{domain.ThemeWeb3},
				Chunks: []domain.Chunk{{ID: "b-0", Text: "beta", Embedding: []float32{0, 1}}}},
		},
	}
	r := NewRetriever(&memIndex{idx: idx})

	hits, err := r.Select(context.Background(), []float32{1, 0}, nil, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a-0", hits[0].Chunk.ID)
	assert.Same(t, &idx.Docs[0], hits[0].Document)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)

	hits, err = r.Select(context.Background(), []float32{1, 0}, []domain.Theme{domain.ThemeWeb3}, 4)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b-0", hits[0].Chunk.ID)
	assert.Same(t, &idx.Docs[1], hits[0].Document)
	assert.InDelta(t, 0.0, hits[0].Score, 1e-9)
}

func TestSelect_ResultsPointIntoIndex(t *testing.T) {
	idx := testIndex()
	r := NewRetriever(&memIndex{idx: idx})

	hits, err := r.Select(context.Background(), []float32{0, 1}, nil, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Same(t, &idx.Docs[1], hits[0].Document)
	assert.Same(t, &idx.Docs[1].Chunks[0], hits[0].Chunk)
}

func TestSelect_TiesKeepIndexOrder(t *testing.T) {
	idx := &domain.VectorIndex{
		Meta: domain.IndexMeta{Dims: 2},
		Docs: []domain.Document{
			{ID: "a", Chunks: []domain.Chunk{{ID: "a-0", Embedding: []float32{1, 0}}, {ID: "a-1", Embedding: []float32{2, 0}}}},
			{ID: "b", Chunks: []domain.Chunk{{ID: "b-0", Embedding: []float32{3, 0}}}},
		},
	}
	r := NewRetriever(&memIndex{idx: idx})

	hits, err := r.Select(context.Background(), []float32{1, 0}, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-0", "a-1", "b-0"}, chunkIDs(hits))
}

func TestSelect_DimensionMismatch(t *testing.T) {
	r := NewRetriever(&memIndex{idx: testIndex()})
	_, err := r.Select(context.Background(), []float32{1, 0, 0}, nil, 4)
	assert.ErrorIs(t, err, port.ErrDimensionMismatch)
}

func TestSelect_EmptyIndex(t *testing.T) {
	r := NewRetriever(&memIndex{idx: &domain.VectorIndex{}})
	hits, err := r.Select(context.Background(), []float32{1, 0, 0}, nil, 4)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSelect_LoadError(t *testing.T) {
	r := NewRetriever(&memIndex{err: port.ErrIndexNotFound})
	_, err := r.Select(context.Background(), []float32{1, 0}, nil, 4)
	assert.ErrorIs(t, err, port.ErrIndexNotFound)
}

func TestUniqueDocuments(t *testing.T) {
	idx := testIndex()
	r := NewRetriever(&memIndex{idx: idx})

	hits, err := r.Select(context.Background(), []float32{1, 0.05}, nil, 4)
	require.NoError(t, err)

	docs := UniqueDocuments(hits)
	require.Len(t, docs, 3)
	assert.Same(t, &idx.Docs[0], docs[0])
	assert.Same(t, &idx.Docs[2], docs[1])
	assert.Same(t, &idx.Docs[1], docs[2])

	assert.Empty(t, UniqueDocuments(nil))
}

func TestUniqueDocuments_SameTitleDifferentDocs(t *testing.T) {
	a := &domain.Document{ID: "x", Title: "Same"}
	b := &domain.Document{ID: "x-2", Title: "Same"}
	docs := UniqueDocuments([]domain.ScoredChunk{{Document: a}, {Document: b}, {Document: a}})
	assert.Equal(t, []*domain.Document{a, b}, docs)
}
