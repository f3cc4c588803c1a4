package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the question-answering service.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds segmentation, normalization and index storage configuration.
type IndexConfig struct {
	Path         string   `yaml:"path"` // empty = .rag/index.db under the root dir
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	Language     string   `yaml:"language"` // stopword set: "english", "portuguese"
	Metric       string   `yaml:"metric"`   // "cosine" or "l2"
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK         int           `yaml:"top_k"`
	MinScore     float64       `yaml:"min_score"`     // cosine only, 0 = disabled
	MMRLambda    float64       `yaml:"mmr_lambda"`    // 0 = no reranking
	DedupJaccard float64       `yaml:"dedup_jaccard"` // drop candidates this similar to a picked one
	CacheSize    int           `yaml:"cache_size"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // "openai", "ollama", "jina", "hash"
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	BaseURL   string        `yaml:"base_url"`
	Dimension int           `yaml:"dimension"` // hash provider only
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LLMConfig holds language model configuration.
type LLMConfig struct {
	Provider    string   `yaml:"provider"` // "openai", "anthropic"
	Model       string   `yaml:"model"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	BaseURL     string   `yaml:"base_url"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"` // nil = provider default
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	CORSOrigins  []string      `yaml:"cors_origins"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxUploadMB  int           `yaml:"max_upload_mb"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:     []string{"**/*.txt", "**/*.md", "**/*.markdown", "**/*.csv", "**/*.json", "**/*.html", "**/*.htm"},
			Excludes:     []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/.rag/**"},
			Language:     "english",
			Metric:       "cosine",
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Retrieve: RetrieveConfig{
			TopK:         5,
			DedupJaccard: 0.8,
			CacheSize:    128,
			CacheTTL:     5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 512,
			BatchSize: 100,
			Timeout:   60 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4.1-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   1024,
			Temperature: ptr(0.0),
		},
		Server: ServerConfig{
			ListenAddr:   ":8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			MaxUploadMB:  32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func ptr[T any](v T) *T { return &v }

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate checks values that would make segmentation or search meaningless.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, %d), got %d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	switch c.Index.Metric {
	case "cosine", "l2":
	default:
		return fmt.Errorf("index.metric must be cosine or l2, got %q", c.Index.Metric)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature must be in [0, 2], got %g", *t)
	}
	if c.Retrieve.MMRLambda < 0 || c.Retrieve.MMRLambda > 1 {
		return fmt.Errorf("retrieve.mmr_lambda must be in [0, 1], got %g", c.Retrieve.MMRLambda)
	}
	if c.Retrieve.MMRLambda > 0 && (c.Retrieve.DedupJaccard <= 0 || c.Retrieve.DedupJaccard > 1) {
		return fmt.Errorf("retrieve.dedup_jaccard must be in (0, 1], got %g", c.Retrieve.DedupJaccard)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".rag", "index.db")
}

// ResolveIndexPath returns the configured index path, falling back to IndexDBPath.
// Relative paths are taken relative to dir.
func (c *Config) ResolveIndexPath(dir string) string {
	if c.Index.Path == "" {
		return IndexDBPath(dir)
	}
	if filepath.IsAbs(c.Index.Path) {
		return c.Index.Path
	}
	return filepath.Join(dir, c.Index.Path)
}

// EnsureRAGDir ensures the .rag directory exists.
func EnsureRAGDir(dir string) error {
	ragDir := filepath.Join(dir, ".rag")
	return os.MkdirAll(ragDir, 0755)
}
