package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Values come from defaults, then
// an optional YAML file (CONFIG_FILE), then environment variables.
type Config struct {
	// Server
	Port        string `yaml:"port"`
	AppName     string `yaml:"app_name"`
	FrontendURL string `yaml:"frontend_url"`

	// Data
	IndexPath string `yaml:"index_path"`
	RawDir    string `yaml:"raw_dir"`

	// Database (empty = audit to log)
	DatabaseURL string `yaml:"database_url"`

	// Ollama: Embed endpoint
	OllamaEmbedURL   string `yaml:"ollama_embed_url"`
	OllamaEmbedModel string `yaml:"ollama_embed_model"`
	OllamaEmbedToken string `yaml:"ollama_embed_token"` // Bearer token for Ollama Cloud (empty = local)

	// Ollama: Generate endpoint
	OllamaChatURL   string `yaml:"ollama_chat_url"`
	OllamaChatModel string `yaml:"ollama_model"`
	OllamaChatToken string `yaml:"ollama_chat_token"`
	GenerateEnabled bool   `yaml:"generate_enabled"`

	// Ollama: client behaviour
	OllamaRPS        float64       `yaml:"ollama_rps"`
	OllamaMaxRetries int           `yaml:"ollama_max_retries"`
	GenerateTimeout  time.Duration `yaml:"generate_timeout"`

	// Indexing and retrieval
	ChunkSize      int `yaml:"chunk_size"`
	ChunkOverlap   int `yaml:"chunk_overlap"`
	EmbedBatchSize int `yaml:"embed_batch_size"`
	TopK           int `yaml:"top_k"`

	// MCP
	MCPEnabled bool   `yaml:"mcp_enabled"`
	MCPPort    string `yaml:"mcp_port"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Chat client
	APIURL string `yaml:"api_url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:        "3001",
		AppName:     "Case Study Assistant",
		FrontendURL: "http://localhost:3000",

		IndexPath: "data/index.json",
		RawDir:    "data/raw",

		OllamaEmbedURL:   "http://127.0.0.1:11434",
		OllamaEmbedModel: "bge-m3",

		OllamaChatURL:   "http://127.0.0.1:11434",
		OllamaChatModel: "llama3:8b",
		GenerateEnabled: true,

		OllamaMaxRetries: 2,
		GenerateTimeout:  2 * time.Minute,

		ChunkSize:      900,
		ChunkOverlap:   150,
		EmbedBatchSize: 32,
		TopK:           4,

		MCPEnabled: false,
		MCPPort:    "3002",

		LogLevel:  "info",
		LogFormat: "text",

		APIURL: "http://localhost:3001",
	}
}

// Load reads configuration from the optional CONFIG_FILE and environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOrDefault("PORT", c.Port)
	c.AppName = envOrDefault("APP_NAME", c.AppName)
	c.FrontendURL = envOrDefault("FRONTEND_URL", c.FrontendURL)

	c.IndexPath = envOrDefault("INDEX_PATH", c.IndexPath)
	c.RawDir = envOrDefault("RAW_DIR", c.RawDir)

	c.DatabaseURL = envOrDefault("DATABASE_URL", c.DatabaseURL)

	base := os.Getenv("OLLAMA_BASE_URL")
	c.OllamaEmbedURL = envOrDefault("OLLAMA_EMBED_URL", envOrDefault("OLLAMA_BASE_URL", c.OllamaEmbedURL))
	c.OllamaEmbedModel = envOrDefault("OLLAMA_EMBED_MODEL", c.OllamaEmbedModel)
	c.OllamaEmbedToken = envOrDefault("OLLAMA_EMBED_TOKEN", c.OllamaEmbedToken)

	if base != "" {
		c.OllamaChatURL = base
	}
	c.OllamaChatURL = envOrDefault("OLLAMA_CHAT_URL", c.OllamaChatURL)
	c.OllamaChatModel = envOrDefault("OLLAMA_MODEL", envOrDefault("OLLAMA_CHAT_MODEL", c.OllamaChatModel))
	c.OllamaChatToken = envOrDefault("OLLAMA_CHAT_TOKEN", c.OllamaChatToken)
	c.GenerateEnabled = envOrDefaultBool("GENERATE_ENABLED", c.GenerateEnabled)

	c.OllamaRPS = envOrDefaultFloat("OLLAMA_RPS", c.OllamaRPS)
	c.OllamaMaxRetries = envOrDefaultInt("OLLAMA_MAX_RETRIES", c.OllamaMaxRetries)
	c.GenerateTimeout = envOrDefaultDuration("GENERATE_TIMEOUT", c.GenerateTimeout)

	c.ChunkSize = envOrDefaultInt("CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = envOrDefaultInt("CHUNK_OVERLAP", c.ChunkOverlap)
	c.EmbedBatchSize = envOrDefaultInt("EMBED_BATCH_SIZE", c.EmbedBatchSize)
	c.TopK = envOrDefaultInt("TOP_K", c.TopK)

	c.MCPEnabled = envOrDefaultBool("MCP_ENABLED", c.MCPEnabled)
	c.MCPPort = envOrDefault("MCP_PORT", c.MCPPort)

	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOrDefault("LOG_FORMAT", c.LogFormat)

	c.APIURL = envOrDefault("API_URL", c.APIURL)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}
