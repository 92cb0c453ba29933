package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/lib/pq"

	"github.com/arturoeanton/casestudy-assistant/internal/adapter/ai"
	"github.com/arturoeanton/casestudy-assistant/internal/adapter/store"
	"github.com/arturoeanton/casestudy-assistant/internal/handler"
	"github.com/arturoeanton/casestudy-assistant/internal/mcp"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
	"github.com/arturoeanton/casestudy-assistant/internal/service"
	"github.com/arturoeanton/casestudy-assistant/pkg/config"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))

	slog.Info("Starting Case Study Assistant",
		"port", cfg.Port,
		"index", cfg.IndexPath,
		"ollama_embed", cfg.OllamaEmbedURL,
		"ollama_chat", cfg.OllamaChatURL,
		"mcp_enabled", cfg.MCPEnabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Index ────────────────────────────────────────────────────────────
	indexFile := store.NewIndexFile(cfg.IndexPath)
	idx, err := indexFile.Load(ctx)
	if err != nil {
		slog.Error("failed to load index, run ingest first", "path", cfg.IndexPath, "error", err)
		os.Exit(1)
	}
	slog.Info("index loaded",
		"docs", len(idx.Docs),
		"chunks", idx.ChunkCount(),
		"model", idx.Meta.EmbedModel,
		"dims", idx.Meta.Dims,
		"built_at", idx.Meta.BuiltAt,
	)
	if idx.Meta.EmbedModel != cfg.OllamaEmbedModel {
		slog.Warn("embedding model differs from the one used to build the index",
			"index_model", idx.Meta.EmbedModel, "configured_model", cfg.OllamaEmbedModel)
	}

	// ── Audit ────────────────────────────────────────────────────────────
	var auditWriter port.AuditWriter = store.NewLogAuditWriter(nil)
	var auditReader port.AuditReader
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare audit schema", "error", err)
			os.Exit(1)
		}
		auditWriter, auditReader = pgStore, pgStore
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	clientOpts := ai.ClientOptions{
		RequestsPerSecond: cfg.OllamaRPS,
		MaxRetries:        cfg.OllamaMaxRetries,
	}
	embedder := ai.NewOllamaEmbedder(ai.OllamaEndpointConfig{
		BaseURL: cfg.OllamaEmbedURL,
		Model:   cfg.OllamaEmbedModel,
		Token:   cfg.OllamaEmbedToken,
	}, clientOpts)

	var generator port.Generator
	if cfg.GenerateEnabled {
		genOpts := clientOpts
		genOpts.Timeout = cfg.GenerateTimeout
		generator = ai.NewOllamaGenerator(ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		}, genOpts)
	}

	// ── Services ─────────────────────────────────────────────────────────
	ragService := service.NewRAGService(embedder, generator, service.NewRetriever(indexFile), service.RAGOptions{
		TopK: cfg.TopK,
	})

	app := newApp(cfg, ragService, auditWriter, auditReader)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(ragService, auditWriter, cfg.MCPPort, handler.Version)
		go func() {
			if err := mcpServer.Start(ctx); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
