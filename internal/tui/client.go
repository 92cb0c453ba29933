package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
)

// AskClient sends questions to the assistant.
type AskClient interface {
	Ask(ctx context.Context, question string, filters []domain.Theme, mode domain.AnswerMode) (*domain.AskResponse, error)
}

// HTTPClient talks to the server's POST /api/ask endpoint.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ AskClient = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the API at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPClient) Ask(ctx context.Context, question string, filters []domain.Theme, mode domain.AnswerMode) (*domain.AskResponse, error) {
	labels := make([]string, len(filters))
	for i, f := range filters {
		labels[i] = string(f)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"question": question,
		"filters":  labels,
		"mode":     string(mode),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/ask", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("request failed (%d)", resp.StatusCode)
	}

	var out domain.AskResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
