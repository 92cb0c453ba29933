package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// DefaultEmbedBatchSize is the number of chunks sent per embedding call.
const DefaultEmbedBatchSize = 32

// BuilderOptions tunes index building.
type BuilderOptions struct {
	BatchSize int
	// Now stamps meta.builtAt; defaults to time.Now.
	Now func() time.Time
}

// IndexBuilder turns raw records into a VectorIndex.
type IndexBuilder struct {
	embedder   port.Embedder
	tagger     port.Tagger
	summarizer port.Summarizer
	chunker    *Chunker
	opts       BuilderOptions
}

// NewIndexBuilder creates a builder; zero options fall back to defaults.
func NewIndexBuilder(embedder port.Embedder, tagger port.Tagger, summarizer port.Summarizer, chunker *Chunker, opts BuilderOptions) *IndexBuilder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultEmbedBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &IndexBuilder{
		embedder:   embedder,
		tagger:     tagger,
		summarizer: summarizer,
		chunker:    chunker,
		opts:       opts,
	}
}

// Build chunks, tags, summarizes and embeds every record. Any embedding
// failure aborts the whole build.
func (b *IndexBuilder) Build(ctx context.Context, raws []domain.RawDocument) (*domain.VectorIndex, error) {
	if len(raws) == 0 {
		return nil, port.ErrNoRawDocuments
	}

	idx := &domain.VectorIndex{
		Meta: domain.IndexMeta{
			BuiltAt:    b.opts.Now().UTC(),
			EmbedModel: b.embedder.ModelName(),
			ChunkSize:  b.chunker.MaxWords(),
			Overlap:    b.chunker.Overlap(),
		},
		Docs: make([]domain.Document, 0, len(raws)),
	}

	ids := newSlugAllocator()
	for _, raw := range raws {
		id := ids.next(raw.Title)

		texts := b.chunker.Split(raw.Body)
		vecs, err := b.embedAll(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed %q: %w", raw.Title, err)
		}

		chunks := make([]domain.Chunk, len(texts))
		for i, text := range texts {
			if err := checkDims(&idx.Meta, vecs[i]); err != nil {
				return nil, fmt.Errorf("embed %q chunk %d: %w", raw.Title, i, err)
			}
			chunks[i] = domain.Chunk{
				ID:        fmt.Sprintf("%s-%d", id, i),
				Text:      text,
				Embedding: vecs[i],
			}
		}

		idx.Docs = append(idx.Docs, domain.Document{
			ID:      id,
			Title:   raw.Title,
			URL:     raw.URL,
			Themes:  b.tagger.Themes(raw.Title + "\n" + raw.Body),
			Summary: b.summarizer.Summarize(raw.Title, raw.Body),
			Chunks:  chunks,
		})
	}
	return idx, nil
}

// BuildAndSave reads every raw record from source, builds the index and writes it.
func (b *IndexBuilder) BuildAndSave(ctx context.Context, source port.RawSource, writer port.IndexWriter) (*domain.VectorIndex, error) {
	raws, err := source.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read raw documents: %w", err)
	}

	idx, err := b.Build(ctx, raws)
	if err != nil {
		return nil, err
	}

	if err := writer.Save(ctx, idx); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	slog.Info("index built",
		"docs", len(idx.Docs),
		"chunks", idx.ChunkCount(),
		"model", idx.Meta.EmbedModel,
		"dims", idx.Meta.Dims,
	)
	return idx, nil
}

func (b *IndexBuilder) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.opts.BatchSize {
		end := start + b.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := b.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("%w: got %d vectors for %d inputs", port.ErrInvalidEmbedding, len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// checkDims fixes meta.Dims on the first vector and rejects any later mismatch.
func checkDims(meta *domain.IndexMeta, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", port.ErrInvalidEmbedding)
	}
	if meta.Dims == 0 {
		meta.Dims = len(vec)
		return nil
	}
	if len(vec) != meta.Dims {
		return fmt.Errorf("%w: got %d, index has %d", port.ErrDimensionMismatch, len(vec), meta.Dims)
	}
	return nil
}

// Slugify lowercases title and replaces every run of characters outside
// [a-z0-9] with a single "-". Leading and trailing runs are kept, so " Foo "
// becomes "-foo-". An empty title becomes "untitled".
func Slugify(title string) string {
	var sb strings.Builder
	inRun := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			inRun = false
			sb.WriteRune(r)
			continue
		}
		if !inRun {
			sb.WriteByte('-')
			inRun = true
		}
	}
	if sb.Len() == 0 {
		return "untitled"
	}
	return sb.String()
}

// slugAllocator hands out unique document ids. Repeated slugs get -2, -3, ...
// in processing order.
type slugAllocator struct {
	used map[string]bool
}

func newSlugAllocator() *slugAllocator {
	return &slugAllocator{used: map[string]bool{}}
}

func (a *slugAllocator) next(title string) string {
	base := Slugify(title)
	id := base
	for n := 2; a.used[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	if id != base {
		slog.Warn("duplicate document slug", "title", title, "slug", base, "id", id)
	}
	a.used[id] = true
	return id
}
