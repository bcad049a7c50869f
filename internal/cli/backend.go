package cli

import (
	"fmt"
	"log"
	"os"
	"time"

	"pdfqa/config"
	"pdfqa/internal/adapter/provider"
	"pdfqa/internal/adapter/store"
	"pdfqa/internal/port"
	"pdfqa/internal/usecase"
)

var useMock bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "use the deterministic mock provider (no API key needed)")
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}

// openIndex opens (creating if needed) the vector index under the data
// directory.
func openIndex(logger *log.Logger) (*store.VectorIndex, error) {
	dir := GetDataDir()
	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	idx, err := store.Open(config.IndexDBPath(dir), GetConfig().Provider.Dimension, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}

// newProvider builds the embedding and completion clients from config.
func newProvider(cfg *config.Config) (port.Embedder, port.Completer, error) {
	if useMock {
		return provider.NewMockEmbedder(cfg.Provider.Dimension),
			provider.NewMockCompleter("mock answer"), nil
	}

	client, err := provider.NewOpenAIClient(provider.Options{
		APIKeyEnv:      cfg.Provider.APIKeyEnv,
		BaseURL:        cfg.Provider.BaseURL,
		ChatModel:      cfg.Provider.ChatModel,
		EmbeddingModel: cfg.Provider.EmbeddingModel,
		Dimension:      cfg.Provider.Dimension,
		BatchSize:      cfg.Provider.BatchSize,
		Retry: provider.RetryPolicy{
			MaxAttempts: cfg.Provider.MaxRetries,
			BaseDelay:   time.Duration(cfg.Provider.RetryBaseMS) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.Provider.RetryMaxMS) * time.Millisecond,
			Jitter:      0.5,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

func ingestLimits(cfg *config.Config) usecase.IngestLimits {
	return usecase.IngestLimits{
		MaxPages:             cfg.Limits.MaxPDFPages,
		MaxChunksPerDocument: cfg.Limits.MaxChunksPerDocument,
		MaxTotalChunks:       cfg.Limits.MaxTotalChunks,
	}
}

func askOptions(cfg *config.Config) usecase.AskOptions {
	return usecase.AskOptions{
		DefaultMaxResults: cfg.Retrieval.MaxResults,
		MaxResultsCap:     cfg.Retrieval.MaxResultsCap,
		DefaultThreshold:  cfg.Retrieval.SimilarityThreshold,
		MaxContextLength:  cfg.Retrieval.MaxContextLength,
		MaxQuestionLength: cfg.Limits.MaxQuestionLength,
	}
}
