package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
)

// fakeEmbedder maps text to a vector through vecFor; unknown text gets fallback.
type fakeEmbedder struct {
	mu       sync.Mutex
	vecs     map[string][]float32
	fallback []float32
	err      error
	batches  [][]string
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vecs[t]; ok {
			out[i] = v
			continue
		}
		out[i] = f.fallback
	}
	return out, nil
}

// lengthEmbedder returns a 2-d vector derived from the text, independent of batching.
type lengthEmbedder struct{ calls int }

func (l *lengthEmbedder) ModelName() string { return "length" }

func (l *lengthEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, _ := l.EmbedBatch(ctx, []string{text})
	return v[0], nil
}

func (l *lengthEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	l.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), float32(strings.Count(t, " ") + 1)}
	}
	return out, nil
}

type fakeGenerator struct {
	answer      string
	err         error
	gotQuestion string
	gotContext  string
}

func (f *fakeGenerator) ModelName() string { return "fake-gen" }

func (f *fakeGenerator) Generate(_ context.Context, question, contextText string) (string, error) {
	f.gotQuestion = question
	f.gotContext = contextText
	return f.answer, f.err
}

type staticTagger struct{}

func (staticTagger) Themes(text string) []domain.Theme {
	if strings.Contains(strings.ToLower(text), "chain") {
		return []domain.Theme{domain.ThemeWeb3}
	}
	return []domain.Theme{domain.ThemeAI}
}

type staticSummarizer struct{}

func (staticSummarizer) Summarize(title, _ string) string { return "About " + title }

// memIndex is an in-memory IndexSource.
type memIndex struct {
	idx   *domain.VectorIndex
	err   error
	loads int
}

func (m *memIndex) Load(context.Context) (*domain.VectorIndex, error) {
	m.loads++
	return m.idx, m.err
}

type memWriter struct {
	saved *domain.VectorIndex
	err   error
}

func (m *memWriter) Save(_ context.Context, idx *domain.VectorIndex) error {
	if m.err != nil {
		return m.err
	}
	m.saved = idx
	return nil
}

type memRaw struct {
	docs []domain.RawDocument
	err  error
}

func (m *memRaw) ReadAll(context.Context) ([]domain.RawDocument, error) {
	return m.docs, m.err
}

var errBoom = errors.New("boom")

// testIndex has three documents:
//
//	ai-doc   (AI)        chunks along x
//	web3-doc (Web3)      chunks along y
//	mixed    (AI, UX/UI) chunk along x+y
func testIndex() *domain.VectorIndex {
	return &domain.VectorIndex{
		Meta: domain.IndexMeta{Dims: 2, EmbedModel: "fake-embed", ChunkSize: 900, Overlap: 150},
		Docs: []domain.Document{
			{
				ID: "ai-doc", Title: "AI Doc", URL: "https://x/ai", Summary: "AI summary.",
				Themes: []domain.Theme{domain.ThemeAI},
				Chunks: []domain.Chunk{
					{ID: "ai-doc-0", Text: "ai chunk zero", Embedding: []float32{1, 0}},
					{ID: "ai-doc-1", Text: "ai chunk one", Embedding: []float32{0.9, 0.1}},
				},
			},
			{
				ID: "web3-doc", Title: "Web3 Doc", URL: "https://x/web3", Summary: "Web3 summary.",
				Themes: []domain.Theme{domain.ThemeWeb3},
				Chunks: []domain.Chunk{
					{ID: "web3-doc-0", Text: "web3 chunk zero", Embedding: []float32{0, 1}},
				},
			},
			{
				ID: "mixed", Title: "Mixed", URL: "https://x/mixed", Summary: "Mixed summary.",
				Themes: []domain.Theme{domain.ThemeAI, domain.ThemeUXUI},
				Chunks: []domain.Chunk{
					{ID: "mixed-0", Text: "mixed chunk", Embedding: []float32{1, 1}},
				},
			},
		},
	}
}
