package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

type fakeAssistant struct {
	got  domain.AskRequest
	resp *domain.AskResponse
	err  error

	meta domain.IndexMeta
	docs []domain.DocSummary
}

func (f *fakeAssistant) Ask(_ context.Context, req domain.AskRequest) (*domain.AskResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, port.ErrEmptyQuestion
	}
	return f.resp, nil
}

func (f *fakeAssistant) Catalog(context.Context) (domain.IndexMeta, []domain.DocSummary, error) {
	return f.meta, f.docs, f.err
}

func (f *fakeAssistant) Stats(context.Context) (int, int, error) {
	return len(f.docs), 7, f.err
}

func newTestApp(a Assistant) *fiber.App {
	app := fiber.New()
	for _, prefix := range []string{"/api", "/api/v1"} {
		g := app.Group(prefix)
		NewAskHandler(a).Register(g)
		NewDocsHandler(a).Register(g)
	}
	NewHealthHandler("test", a).Register(app.Group("/api/v1"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestAsk_OK(t *testing.T) {
	a := &fakeAssistant{resp: &domain.AskResponse{
		Answer:  "42",
		Sources: []domain.Source{{Title: "Acme", URL: "https://x/acme"}},
	}}
	app := newTestApp(a)

	for _, path := range []string{"/api/ask", "/api/v1/ask"} {
		status, body := do(t, app, http.MethodPost, path, `{"question":"why?","filters":["AI","Web3"],"mode":"summary"}`)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "42", body["answer"])
		assert.Equal(t, []any{map[string]any{"title": "Acme", "url": "https://x/acme"}}, body["sources"])
		assert.NotContains(t, body, "degraded")
	}

	assert.Equal(t, domain.AskRequest{
		Question: "why?",
		Filters:  []domain.Theme{domain.ThemeAI, domain.ThemeWeb3},
		Mode:     domain.ModeSummary,
	}, a.got)
}

func TestAsk_Degraded(t *testing.T) {
	a := &fakeAssistant{resp: &domain.AskResponse{Answer: "excerpt", Sources: []domain.Source{}, Degraded: true}}
	status, body := do(t, newTestApp(a), http.MethodPost, "/api/ask", `{"question":"q"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["degraded"])
}

func TestAsk_BadRequests(t *testing.T) {
	cases := map[string]string{
		"invalid json":   `{"question":`,
		"missing":        `{}`,
		"blank question": `{"question":"   "}`,
		"unknown theme":  `{"question":"q","filters":["Gaming"]}`,
		"unknown mode":   `{"question":"q","mode":"poem"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := do(t, newTestApp(&fakeAssistant{}), http.MethodPost, "/api/ask", payload)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAsk_ServerErrors(t *testing.T) {
	for _, err := range []error{
		fmt.Errorf("embed query: %w", port.ErrEmbeddingUnavailable),
		fmt.Errorf("select chunks: %w", port.ErrDimensionMismatch),
		port.ErrIndexNotFound,
	} {
		status, body := do(t, newTestApp(&fakeAssistant{err: err}), http.MethodPost, "/api/ask", `{"question":"q"}`)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, err.Error(), body["error"])
	}
}

func TestDocs(t *testing.T) {
	a := &fakeAssistant{
		meta: domain.IndexMeta{EmbedModel: "bge-m3", Dims: 3},
		docs: []domain.DocSummary{{ID: "acme", Title: "Acme", Themes: []domain.Theme{domain.ThemeAI}}},
	}
	status, body := do(t, newTestApp(a), http.MethodGet, "/api/docs", "")
	assert.Equal(t, http.StatusOK, status)

	meta := body["meta"].(map[string]any)
	assert.Equal(t, "bge-m3", meta["embedModel"])
	docs := body["docs"].([]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "acme", docs[0].(map[string]any)["id"])
	assert.NotContains(t, docs[0], "chunks")
}

func TestHealth(t *testing.T) {
	a := &fakeAssistant{docs: []domain.DocSummary{{ID: "a"}, {ID: "b"}}}
	status, body := do(t, newTestApp(a), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 2, body["docs"])
	assert.EqualValues(t, 7, body["chunks"])

	status, body = do(t, newTestApp(&fakeAssistant{err: port.ErrIndexNotFound}), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["status"])
}

type fakeAuditReader struct {
	limit  int
	action string
}

func (f *fakeAuditReader) ListAuditLogs(_ context.Context, limit int, action string) ([]domain.AuditLog, error) {
	f.limit, f.action = limit, action
	return []domain.AuditLog{{ID: "1", Action: action}}, nil
}

func TestAuditLogs(t *testing.T) {
	r := &fakeAuditReader{}
	app := fiber.New()
	NewAuditHandler(r).Register(app.Group("/api/v1"))

	status, body := do(t, app, http.MethodGet, "/api/v1/audit/logs?limit=5&action=ask", "")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, 5, r.limit)
	assert.Equal(t, "ask", r.action)

	status, _ = do(t, app, http.MethodGet, "/api/v1/audit/logs?limit=lots", "")
	assert.Equal(t, http.StatusBadRequest, status)
}
