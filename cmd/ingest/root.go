package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/casestudy-assistant/internal/adapter/ai"
	"github.com/arturoeanton/casestudy-assistant/internal/adapter/analysis"
	"github.com/arturoeanton/casestudy-assistant/internal/adapter/store"
	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/service"
	"github.com/arturoeanton/casestudy-assistant/pkg/config"
)

// NewRootCmd builds the ingest command. Flags default to the loaded config.
func NewRootCmd(version string, cfg *config.Config) *cobra.Command {
	opts := *cfg

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build the case study vector index from raw records",
		Long: `Reads every *.json record in the raw directory (files starting with "_" are skipped),
chunks and embeds the bodies with Ollama, tags themes, writes a short summary, and
replaces the index file atomically.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := runIngest(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d docs, %d chunks (%s, %d dims)\n",
				opts.IndexPath, len(idx.Docs), idx.ChunkCount(), idx.Meta.EmbedModel, idx.Meta.Dims)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.RawDir, "raw-dir", opts.RawDir, "Directory of raw {url,title,body} JSON records")
	f.StringVarP(&opts.IndexPath, "out", "o", opts.IndexPath, "Index file to write")
	f.StringVar(&opts.OllamaEmbedURL, "embed-url", opts.OllamaEmbedURL, "Ollama base URL for embeddings")
	f.StringVar(&opts.OllamaEmbedModel, "embed-model", opts.OllamaEmbedModel, "Ollama embedding model")
	f.IntVar(&opts.ChunkSize, "chunk-size", opts.ChunkSize, "Words per chunk")
	f.IntVar(&opts.ChunkOverlap, "overlap", opts.ChunkOverlap, "Words shared by consecutive chunks")
	f.IntVar(&opts.EmbedBatchSize, "batch-size", opts.EmbedBatchSize, "Chunks per embedding request")
	f.Float64Var(&opts.OllamaRPS, "rps", opts.OllamaRPS, "Max embedding requests per second (0 = unlimited)")

	return cmd
}

func runIngest(ctx context.Context, cfg *config.Config) (*domain.VectorIndex, error) {
	chunker, err := service.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	embedder := ai.NewOllamaEmbedder(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaEmbedURL,
			Model:   cfg.OllamaEmbedModel,
			Token:   cfg.OllamaEmbedToken,
		},
		ai.ClientOptions{
			RequestsPerSecond: cfg.OllamaRPS,
			MaxRetries:        cfg.OllamaMaxRetries,
			Timeout:           5 * time.Minute,
		},
	)

	builder := service.NewIndexBuilder(
		embedder,
		analysis.NewKeywordTagger(),
		analysis.NewExtractiveSummarizer(),
		chunker,
		service.BuilderOptions{BatchSize: cfg.EmbedBatchSize},
	)

	return builder.BuildAndSave(ctx, store.NewRawDir(cfg.RawDir), store.NewIndexFile(cfg.IndexPath))
}
