package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// Assistant is what the MCP tools call into.
type Assistant interface {
	Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error)
	Catalog(ctx context.Context) (domain.IndexMeta, []domain.DocSummary, error)
}

// Server implements the Model Context Protocol (MCP) server.
// It exposes the case study assistant as tools for external AI agents.
type Server struct {
	assistant Assistant
	audit     port.AuditWriter
	port      string
	server    *mcp.Server
}

// NewServer creates a new MCP server. audit may be nil.
func NewServer(assistant Assistant, audit port.AuditWriter, listenPort, version string) *Server {
	impl := &mcp.Implementation{
		Name:    "casestudy-assistant",
		Version: version,
	}
	s := &Server{
		assistant: assistant,
		audit:     audit,
		port:      listenPort,
		server:    mcp.NewServer(impl, nil),
	}
	s.registerTools()
	return s
}

// Handler returns the streamable HTTP handler mounted at /mcp.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil))
	return mux
}

// Start serves MCP on the configured port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("MCP server starting", "port", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// AskInput is the input schema for ask_case_studies.
type AskInput struct {
	Question string   `json:"question" jsonschema:"question to answer from the case studies"`
	Filters  []string `json:"filters,omitempty" jsonschema:"only use case studies tagged with one of these themes: AI, UX/UI, Web3"`
	Mode     string   `json:"mode,omitempty" jsonschema:"set to summary to answer from the best matching case study summary"`
}

// AskOutput is the structured result of ask_case_studies.
type AskOutput struct {
	Answer   string          `json:"answer"`
	Sources  []domain.Source `json:"sources"`
	Degraded bool            `json:"degraded,omitempty"`
}

// ListInput is the (empty) input schema for list_case_studies.
type ListInput struct{}

// ListOutput is the structured result of list_case_studies.
type ListOutput struct {
	EmbedModel string         `json:"embed_model"`
	Dims       int            `json:"dims"`
	BuiltAt    string         `json:"built_at"`
	Count      int            `json:"count"`
	Docs       []CatalogEntry `json:"docs"`
}

// CatalogEntry is one case study in ListOutput.
type CatalogEntry struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Themes  []string `json:"themes"`
	Summary string   `json:"summary"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_case_studies",
		Description: "Answer a question grounded in the indexed case studies, with sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_case_studies",
		Description: "List the indexed case studies with their themes and summaries",
	}, s.handleList)
}

func (s *Server) handleAsk(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	start := time.Now()

	resp, err := s.ask(ctx, input)
	s.record(ctx, req, "ask_case_studies", start, map[string]interface{}{
		"question": input.Question,
		"filters":  input.Filters,
		"mode":     input.Mode,
	}, err)
	if err != nil {
		return nil, AskOutput{}, err
	}

	out := AskOutput{Answer: resp.Answer, Sources: resp.Sources, Degraded: resp.Degraded}
	if out.Sources == nil {
		out.Sources = []domain.Source{}
	}
	return textResult(formatAnswer(resp)), out, nil
}

func (s *Server) ask(ctx context.Context, input AskInput) (*domain.AskResponse, error) {
	filters, err := port.ParseThemes(input.Filters)
	if err != nil {
		return nil, err
	}
	mode, err := port.ParseMode(input.Mode)
	if err != nil {
		return nil, err
	}
	return s.assistant.Ask(ctx, domain.AskRequest{Question: input.Question, Filters: filters, Mode: mode})
}

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest, _ ListInput) (*mcp.CallToolResult, ListOutput, error) {
	start := time.Now()

	meta, docs, err := s.assistant.Catalog(ctx)
	s.record(ctx, req, "list_case_studies", start, nil, err)
	if err != nil {
		return nil, ListOutput{}, err
	}

	out := ListOutput{
		EmbedModel: meta.EmbedModel,
		Dims:       meta.Dims,
		Count:      len(docs),
		Docs:       make([]CatalogEntry, len(docs)),
	}
	if !meta.BuiltAt.IsZero() {
		out.BuiltAt = meta.BuiltAt.UTC().Format(time.RFC3339)
	}
	for i, d := range docs {
		out.Docs[i] = CatalogEntry{
			ID:      d.ID,
			Title:   d.Title,
			URL:     d.URL,
			Themes:  themeNames(d.Themes),
			Summary: d.Summary,
		}
	}
	return textResult(formatCatalog(docs)), out, nil
}

// record writes one mcp_call audit entry. Failures are logged only.
func (s *Server) record(ctx context.Context, req *mcp.CallToolRequest, tool string, start time.Time, args map[string]interface{}, callErr error) {
	if s.audit == nil {
		return
	}
	details := map[string]interface{}{
		"tool":        tool,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if args != nil {
		details["arguments"] = args
	}
	if callErr != nil {
		details["error"] = callErr.Error()
	}
	detailsJSON, _ := json.Marshal(details)

	entry := &domain.AuditLog{
		RequestID:  uuid.NewString(),
		Action:     domain.AuditActionMCPCall,
		Resource:   "mcp",
		ResourceID: tool,
		Details:    string(detailsJSON),
		UserAgent:  clientName(req),
		CreatedAt:  start,
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.audit.WriteAudit(writeCtx, entry); err != nil {
		slog.Error("failed to write audit log", "tool", tool, "error", err)
	}
}

// clientName reports the connected client's self-declared name and version.
func clientName(req *mcp.CallToolRequest) string {
	if req == nil || req.Session == nil {
		return ""
	}
	params := req.Session.InitializeParams()
	if params == nil || params.ClientInfo == nil {
		return ""
	}
	return strings.TrimSpace(params.ClientInfo.Name + " " + params.ClientInfo.Version)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func formatAnswer(resp *domain.AskResponse) string {
	if len(resp.Sources) == 0 {
		return resp.Answer
	}
	var sb strings.Builder
	sb.WriteString(resp.Answer)
	sb.WriteString("\n\nSources:")
	for _, src := range resp.Sources {
		fmt.Fprintf(&sb, "\n- %s (%s)", src.Title, src.URL)
	}
	return sb.String()
}

func formatCatalog(docs []domain.DocSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d case studies", len(docs))
	for _, d := range docs {
		fmt.Fprintf(&sb, "\n- %s [%s] %s", d.Title, strings.Join(themeNames(d.Themes), ", "), d.URL)
	}
	return sb.String()
}

func themeNames(themes []domain.Theme) []string {
	out := make([]string, len(themes))
	for i, t := range themes {
		out[i] = string(t)
	}
	return out
}
