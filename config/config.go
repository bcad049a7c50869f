package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the PDF question-answering service.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Provider  ProviderConfig  `yaml:"provider"`
	Limits    LimitsConfig    `yaml:"limits"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ChunkingConfig holds text chunking configuration.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size"` // characters per chunk
	Overlap   int `yaml:"overlap"`    // overlapping characters between chunks
}

// RetrievalConfig holds search and answer-assembly configuration.
type RetrievalConfig struct {
	MaxResults          int     `yaml:"max_results"`          // default k
	MaxResultsCap       int     `yaml:"max_results_cap"`      // hard ceiling on requested k
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // default minimum score (0 = disabled)
	MaxContextLength    int     `yaml:"max_context_length"`   // characters of assembled context
}

// ProviderConfig holds the OpenAI-compatible provider configuration.
type ProviderConfig struct {
	APIKeyEnv      string `yaml:"api_key_env"` // environment variable holding the API key
	BaseURL        string `yaml:"base_url"`    // empty = provider default
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	Dimension      int    `yaml:"dimension"`
	BatchSize      int    `yaml:"batch_size"`
	MaxRetries     int    `yaml:"max_retries"`
	RetryBaseMS    int    `yaml:"retry_base_ms"`
	RetryMaxMS     int    `yaml:"retry_max_ms"`
}

// LimitsConfig holds resource ceilings enforced before expensive work.
type LimitsConfig struct {
	MaxQuestionLength    int   `yaml:"max_question_length"`
	MaxPDFPages          int   `yaml:"max_pdf_pages"`
	MaxChunksPerDocument int   `yaml:"max_chunks_per_document"`
	MaxTotalChunks       int   `yaml:"max_total_chunks"`
	MaxFileSize          int64 `yaml:"max_file_size"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Retrieval: RetrievalConfig{
			MaxResults:          5,
			MaxResultsCap:       20,
			SimilarityThreshold: 0,
			MaxContextLength:    4000,
		},
		Provider: ProviderConfig{
			APIKeyEnv:      "OPENAI_API_KEY",
			ChatModel:      "gpt-3.5-turbo",
			EmbeddingModel: "text-embedding-ada-002",
			Dimension:      1536,
			BatchSize:      100,
			MaxRetries:     3,
			RetryBaseMS:    500,
			RetryMaxMS:     8000,
		},
		Limits: LimitsConfig{
			MaxQuestionLength:    1000,
			MaxPDFPages:          500,
			MaxChunksPerDocument: 1000,
			MaxTotalChunks:       10000,
			MaxFileSize:          50 << 20,
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks configuration invariants that would otherwise surface
// as subtle runtime faults.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.overlap must satisfy 0 <= overlap < chunk_size, got %d", c.Chunking.Overlap)
	}
	if c.Retrieval.MaxContextLength <= 0 {
		return fmt.Errorf("retrieval.max_context_length must be positive, got %d", c.Retrieval.MaxContextLength)
	}
	if c.Provider.Dimension <= 0 {
		return fmt.Errorf("provider.dimension must be positive, got %d", c.Provider.Dimension)
	}
	return nil
}

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

// LoadFromDir loads configuration from a directory (looks for pdfqa.yaml).
func LoadFromDir(dir string) (*Config, error) {
	// Try pdfqa.yaml in the directory
	path := filepath.Join(dir, "pdfqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Try .pdfqa/config.yaml
	path = filepath.Join(dir, ".pdfqa", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Return defaults
	return DefaultConfig(), nil
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
	return filepath.Join(dir, ".pdfqa", "index.db")
}

// EnsureDataDir ensures the .pdfqa directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".pdfqa"), 0755)
}
