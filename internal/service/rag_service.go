package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// Defaults for answer composition.
const (
	DefaultContextChars = 2000
	DefaultExcerptChars = 1200
)

// Canned degraded answers.
const (
	fallbackPrefix  = "Generator not available. Here’s the most relevant excerpt:\n\n"
	noContextAnswer = "No local generator configured and no relevant context found."
)

// RAGOptions tunes retrieval and answer composition.
type RAGOptions struct {
	TopK         int
	ContextChars int
	ExcerptChars int
}

// RAGService answers questions from the case study index.
type RAGService struct {
	embedder  port.Embedder
	generator port.Generator
	retriever *Retriever
	opts      RAGOptions
}

// NewRAGService creates a new RAG service. generator may be nil, in which case
// every answer is the extractive fallback.
func NewRAGService(embedder port.Embedder, generator port.Generator, retriever *Retriever, opts RAGOptions) *RAGService {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = DefaultContextChars
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = DefaultExcerptChars
	}
	return &RAGService{embedder: embedder, generator: generator, retriever: retriever, opts: opts}
}

// Ask embeds the question, retrieves the best chunks and composes an answer.
// Generation failures degrade to an excerpt; embedding and index failures are
// returned.
func (s *RAGService) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, port.ErrEmptyQuestion
	}
	slog.Info("RAG query", "question", question, "filters", req.Filters, "mode", req.Mode)

	qvec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.retriever.Select(ctx, qvec, req.Filters, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("select chunks: %w", err)
	}
	docs := UniqueDocuments(hits)

	resp := &domain.AskResponse{Sources: sourcesOf(docs)}

	if req.Mode == domain.ModeSummary && len(docs) > 0 {
		resp.Answer = docs[0].Title + ": " + docs[0].Summary
		return resp, nil
	}

	answer, err := s.generate(ctx, question, s.buildContext(hits))
	if err != nil {
		slog.Warn("generation failed, using excerpt", "error", err)
		resp.Answer = s.fallback(hits)
		resp.Degraded = true
		return resp, nil
	}
	resp.Answer = answer
	return resp, nil
}

func (s *RAGService) generate(ctx context.Context, question, contextText string) (string, error) {
	if s.generator == nil {
		return "", port.ErrGeneratorUnavailable
	}
	answer, err := s.generator.Generate(ctx, question, contextText)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", port.ErrGeneratorUnavailable)
	}
	return answer, nil
}

// buildContext renders the numbered source blocks handed to the generator.
func (s *RAGService) buildContext(hits []domain.ScoredChunk) string {
	blocks := make([]string, len(hits))
	for i, h := range hits {
		blocks[i] = fmt.Sprintf("<<SOURCE %d — %s>>\n%s", i+1, h.Document.Title, truncate(h.Chunk.Text, s.opts.ContextChars))
	}
	return strings.Join(blocks, "\n\n")
}

func (s *RAGService) fallback(hits []domain.ScoredChunk) string {
	if len(hits) == 0 {
		return noContextAnswer
	}
	return fallbackPrefix + truncate(hits[0].Chunk.Text, s.opts.ExcerptChars)
}

// Catalog lists index metadata and documents without their chunks.
func (s *RAGService) Catalog(ctx context.Context) (domain.IndexMeta, []domain.DocSummary, error) {
	idx, err := s.retriever.Index(ctx)
	if err != nil {
		return domain.IndexMeta{}, nil, fmt.Errorf("load index: %w", err)
	}
	docs := make([]domain.DocSummary, len(idx.Docs))
	for i, d := range idx.Docs {
		docs[i] = domain.DocSummary{
			ID:      d.ID,
			Title:   d.Title,
			URL:     d.URL,
			Themes:  d.Themes,
			Summary: d.Summary,
		}
	}
	return idx.Meta, docs, nil
}

// Stats returns document and chunk counts of the loaded index.
func (s *RAGService) Stats(ctx context.Context) (docs, chunks int, err error) {
	idx, err := s.retriever.Index(ctx)
	if err != nil {
		return 0, 0, err
	}
	return len(idx.Docs), idx.ChunkCount(), nil
}

func sourcesOf(docs []*domain.Document) []domain.Source {
	out := make([]domain.Source, len(docs))
	for i, d := range docs {
		out[i] = domain.Source{Title: d.Title, URL: d.URL}
	}
	return out
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
