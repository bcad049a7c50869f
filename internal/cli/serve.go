package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"pdfqa/internal/adapter/cache"
	"pdfqa/internal/adapter/chunker"
	"pdfqa/internal/adapter/pdfext"
	"pdfqa/internal/server"
	"pdfqa/internal/usecase"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the upload, ask and status endpoints over HTTP.

Example:
  pdfqa serve --addr :8000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger := newLogger()

	idx, err := openIndex(logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	embedder, completer, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	counter := &usecase.QueryCounter{}
	answers := cache.NewAnswerCache(100, 5*time.Minute)
	ingestUC := usecase.NewIngestUseCase(idx, embedder,
		chunker.NewPageChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap),
		ingestLimits(cfg), logger).WithCache(answers)
	askUC := usecase.NewAskUseCase(idx, embedder, completer, askOptions(cfg), counter, logger).WithCache(answers)
	statusUC := usecase.NewStatusUseCase(idx, counter)

	srv := server.New(ingestUC, askUC, statusUC, idx,
		pdfext.NewExtractor(cfg.Limits.MaxPDFPages), cfg, logger)
	return srv.ListenAndServe()
}
