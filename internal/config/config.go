package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic information about the running application.
type AppInfo struct {
	Name        string `yaml:"name"`        // Application name.
	Version     string `yaml:"version"`     // Application version.
	Environment string `yaml:"environment"` // Runtime environment ("development", "production").
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // Log level ("debug", "info", "warn", "error").
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Address      string   `yaml:"address"`      // Listen address (e.g. ":8080").
	AllowOrigins []string `yaml:"allowOrigins"` // CORS origins; empty allows any.
}

// MilvusConfig holds the connection settings for an optional Milvus-backed
// vector index.
type MilvusConfig struct {
	Address        string `yaml:"address"`        // Milvus service address.
	CollectionName string `yaml:"collectionName"` // Collection holding the knowledge vectors.
}

// MinIOConfig holds the connection settings for fetching index artifacts
// from object storage instead of the local filesystem.
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"`   // Fetch artifacts from MinIO before loading.
	Endpoint  string `yaml:"endpoint"`  // MinIO endpoint.
	AccessKey string `yaml:"accessKey"` // Access key.
	SecretKey string `yaml:"secretKey"` // Secret key.
	Bucket    string `yaml:"bucket"`    // Bucket holding the artifacts.
	Secure    bool   `yaml:"secure"`    // Use HTTPS.
}

// KnowledgeConfig configures where the knowledge base artifacts live and
// which index backend serves similarity search.
type KnowledgeConfig struct {
	EntriesPath string       `yaml:"entriesPath"` // Path to entries.jsonl.
	IndexPath   string       `yaml:"indexPath"`   // Path to index.gob.
	Backend     string       `yaml:"backend"`     // "flat" or "milvus".
	Metric      string       `yaml:"metric"`      // "cosine" or "l2".
	Milvus      MilvusConfig `yaml:"milvus"`      // Milvus backend settings.
	MinIO       MinIOConfig  `yaml:"minio"`       // Optional artifact source.
}

// ModelConfig holds the provider settings shared by the embedding and
// generation clients.
type ModelConfig struct {
	Provider string `yaml:"provider"` // "gemini", "openai", "huggingface" or "ollama".
	Model    string `yaml:"model"`    // Model name.
	APIKey   string `yaml:"apiKey"`   // Provider API key.
	BaseURL  string `yaml:"baseURL"`  // Optional base URL for self-hosted providers.
}

// RetrievalConfig tunes the similarity search and context assembly.
type RetrievalConfig struct {
	TopK          int     `yaml:"topK"`          // Number of candidates to retrieve.
	MinScore      float64 `yaml:"minScore"`      // Minimum similarity score to keep a result.
	ContextBudget int     `yaml:"contextBudget"` // Character budget for the assembled context block.
}

// MemoryConfig tunes per-session conversation memory.
type MemoryConfig struct {
	MaxTurns   int `yaml:"maxTurns"`   // Turn count that triggers summarization.
	KeepRecent int `yaml:"keepRecent"` // Turns kept verbatim after summarization.
}

// GenerationConfig tunes the answer generation call.
type GenerationConfig struct {
	Timeout          string  `yaml:"timeout"`          // Per-question deadline (e.g. "30s").
	MaxRetries       int     `yaml:"maxRetries"`       // Retries after a failed generation call.
	RetryBackoff     string  `yaml:"retryBackoff"`     // Initial backoff between retries (e.g. "500ms").
	Temperature      float32 `yaml:"temperature"`      // Sampling temperature.
	MaxOutputTokens  int32   `yaml:"maxOutputTokens"`  // Token cap for answers.
	SummaryMaxTokens int32   `yaml:"summaryMaxTokens"` // Token cap for memory summaries.
}

// TokenBucketConfig configures the token bucket rate limiter.
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // Tokens generated per second.
	Capacity int     `yaml:"capacity"`
}

// RateLimiterConfig configures request rate limiting.
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// CircuitBreakerConfig configures the circuit breaker middleware.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s".
}

// MiddlewareConfig groups the HTTP middleware settings.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	Server     ServerConfig     `yaml:"server"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Embedding  ModelConfig      `yaml:"embedding"`
	LLM        ModelConfig      `yaml:"llm"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Memory     MemoryConfig     `yaml:"memory"`
	Generation GenerationConfig `yaml:"generation"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig reads and parses the YAML configuration file at path.
// Environment variables of the form ${VAR} inside the file are expanded
// before parsing so API keys can stay out of the file itself.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	expanded := os.Expand(string(yamlFile), func(key string) string {
		return os.Getenv(key)
	})

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}
