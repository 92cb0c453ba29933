package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"API_URL", "APP_NAME", "CHUNK_OVERLAP", "CHUNK_SIZE", "CONFIG_FILE",
	"DATABASE_URL", "EMBED_BATCH_SIZE", "FRONTEND_URL", "GENERATE_ENABLED",
	"GENERATE_TIMEOUT", "INDEX_PATH", "LOG_FORMAT", "LOG_LEVEL", "MCP_ENABLED",
	"MCP_PORT", "OLLAMA_BASE_URL", "OLLAMA_CHAT_MODEL", "OLLAMA_CHAT_TOKEN",
	"OLLAMA_CHAT_URL", "OLLAMA_EMBED_MODEL", "OLLAMA_EMBED_TOKEN",
	"OLLAMA_EMBED_URL", "OLLAMA_MAX_RETRIES", "OLLAMA_MODEL", "OLLAMA_RPS",
	"PORT", "RAW_DIR", "TOP_K",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "data/index.json", cfg.IndexPath)
	assert.Equal(t, 4, cfg.TopK)
	assert.Equal(t, 2*time.Minute, cfg.GenerateTimeout)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "4000"
index_path: /srv/index.json
top_k: 6
generate_timeout: 30s
ollama_model: mistral
mcp_enabled: true
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TOP_K", "8")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("OLLAMA_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port, "from file")
	assert.Equal(t, "/srv/index.json", cfg.IndexPath, "from file")
	assert.Equal(t, 8, cfg.TopK, "env wins over file")
	assert.Equal(t, 30*time.Second, cfg.GenerateTimeout)
	assert.Equal(t, "mistral", cfg.OllamaChatModel)
	assert.True(t, cfg.MCPEnabled)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaEmbedURL)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaChatURL)
	assert.InDelta(t, 2.5, cfg.OllamaRPS, 1e-9)
	assert.Equal(t, "bge-m3", cfg.OllamaEmbedModel, "default kept")
}

func TestLoad_SpecificURLBeatsBase(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_BASE_URL", "http://base:11434")
	t.Setenv("OLLAMA_CHAT_URL", "http://chat:11434")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://base:11434", cfg.OllamaEmbedURL)
	assert.Equal(t, "http://chat:11434", cfg.OllamaChatURL)
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_InvalidEnvKeepsPrevious(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOP_K", "many")
	t.Setenv("GENERATE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.TopK)
	assert.Equal(t, 2*time.Minute, cfg.GenerateTimeout)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "v", entry["k"])

	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}
