package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// OllamaEndpointConfig holds the configuration for a single Ollama endpoint.
type OllamaEndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://api.ollama.com
	Model   string // e.g. bge-m3, llama3:8b
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
}

// ClientOptions tunes the HTTP behaviour shared by the embed and generate clients.
type ClientOptions struct {
	// RequestsPerSecond limits outgoing calls; 0 disables limiting.
	RequestsPerSecond float64
	// MaxRetries is the number of extra attempts on transport errors, 429 and 5xx.
	MaxRetries int
	// Timeout bounds a single call including retries; 0 means no extra bound.
	Timeout time.Duration
}

// client is the retrying, rate limited transport used by both adapters.
type client struct {
	endpoint   OllamaEndpointConfig
	opts       ClientOptions
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    func(attempt int) time.Duration
}

func newClient(endpoint OllamaEndpointConfig, opts ClientOptions) *client {
	c := &client{
		endpoint:   endpoint,
		opts:       opts,
		httpClient: &http.Client{},
		backoff:    retryDelay,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// statusError is a non-200 reply from Ollama.
type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ollama API error (%d): %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// post sends payload to path, retrying transient failures with exponential backoff.
func (c *client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, err := c.do(ctx, path, payloadBytes)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		delay := c.backoff(attempt)
		var se *statusError
		if errors.As(err, &se) {
			if !se.retryable() {
				return nil, err
			}
			if se.retryAfter > 0 {
				delay = se.retryAfter
			}
		}
		if attempt == c.opts.MaxRetries {
			break
		}
		slog.Debug("ollama retry", "path", path, "attempt", attempt+1, "delay", delay, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *client) do(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.endpoint.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.endpoint.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		se := &statusError{code: resp.StatusCode, body: string(body)}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				se.retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, se
	}

	return io.ReadAll(resp.Body)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second || d <= 0 {
		d = 5 * time.Second
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OllamaEmbedder implements port.Embedder using POST /api/embed.
type OllamaEmbedder struct {
	c *client
}

var _ port.Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates an embedding client for the given endpoint.
func NewOllamaEmbedder(endpoint OllamaEndpointConfig, opts ClientOptions) *OllamaEmbedder {
	return &OllamaEmbedder{c: newClient(endpoint, opts)}
}

// ModelName returns the embedding model identifier.
func (o *OllamaEmbedder) ModelName() string {
	return o.c.endpoint.Model
}

// Embed generates a vector embedding for the given text.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call. The reply is
// checked to hold one non-empty vector per input, all of the same length.
func (o *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	payload := map[string]interface{}{
		"model": o.c.endpoint.Model,
		"input": texts,
	}

	body, err := o.c.post(ctx, "/api/embed", payload)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w: %w", port.ErrEmbeddingUnavailable, err)
	}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w: %w", port.ErrInvalidEmbedding, err)
	}

	if err := validateEmbeddings(resp.Embeddings, len(texts)); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	return resp.Embeddings, nil
}

func validateEmbeddings(vecs [][]float32, want int) error {
	if len(vecs) != want {
		return fmt.Errorf("%w: got %d vectors for %d inputs", port.ErrInvalidEmbedding, len(vecs), want)
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return fmt.Errorf("%w: vector %d is empty", port.ErrInvalidEmbedding, i)
		}
		if len(v) != len(vecs[0]) {
			return fmt.Errorf("%w: vector %d has %d dims, expected %d", port.ErrInvalidEmbedding, i, len(v), len(vecs[0]))
		}
	}
	return nil
}

// SystemPrompt grounds generation in the retrieved context.
const SystemPrompt = "You are the Lunim Case Study Assistant. Use ONLY the provided CONTEXT to answer. " +
	"If the context doesn't contain the answer, say you don't know. Keep answers concise and factual."

// OllamaGenerator implements port.Generator using POST /api/generate.
type OllamaGenerator struct {
	c *client
}

var _ port.Generator = (*OllamaGenerator)(nil)

// NewOllamaGenerator creates a generation client for the given endpoint.
func NewOllamaGenerator(endpoint OllamaEndpointConfig, opts ClientOptions) *OllamaGenerator {
	return &OllamaGenerator{c: newClient(endpoint, opts)}
}

// ModelName returns the generation model identifier.
func (o *OllamaGenerator) ModelName() string {
	return o.c.endpoint.Model
}

// Generate answers question using only contextText.
func (o *OllamaGenerator) Generate(ctx context.Context, question, contextText string) (string, error) {
	payload := map[string]interface{}{
		"model":  o.c.endpoint.Model,
		"prompt": buildPrompt(question, contextText),
		"stream": false,
	}

	body, err := o.c.post(ctx, "/api/generate", payload)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w: %w", port.ErrGeneratorUnavailable, err)
	}

	var resp struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama generate decode: %w: %w", port.ErrGeneratorUnavailable, err)
	}
	if resp.Response == nil {
		return "", fmt.Errorf("ollama generate: %w: missing response field", port.ErrGeneratorUnavailable)
	}
	return *resp.Response, nil
}

func buildPrompt(question, contextText string) string {
	return fmt.Sprintf("%s\n\nCONTEXT:\n%s\n\nQUESTION:\n%s\n\nAnswer:", SystemPrompt, contextText, question)
}
