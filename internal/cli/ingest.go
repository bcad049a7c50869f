package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"pdfqa/internal/adapter/chunker"
	"pdfqa/internal/adapter/fs"
	"pdfqa/internal/adapter/pdfext"
	"pdfqa/internal/domain"
	"pdfqa/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest PDF files into the index",
	Long: `Ingest a PDF file, or every PDF under a directory, into the local
vector index. The index is stored in .pdfqa/index.db within the data
directory.

Examples:
  pdfqa ingest report.pdf       # Ingest a single PDF
  pdfqa ingest ./docs           # Ingest every PDF under ./docs`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	var files []string
	if info.IsDir() {
		walker := fs.NewWalker(nil, nil)
		files, err = walker.Walk(path)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", path, err)
		}
	} else {
		files = []string{path}
	}
	if len(files) == 0 {
		fmt.Println("No PDF files found.")
		return nil
	}

	cfg := GetConfig()
	logger := newLogger()

	idx, err := openIndex(logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	embedder, _, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	ingestUC := usecase.NewIngestUseCase(idx, embedder,
		chunker.NewPageChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap),
		ingestLimits(cfg), logger)
	extractor := pdfext.NewExtractor(cfg.Limits.MaxPDFPages)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	start := time.Now()
	var ingested, skipped, totalChunks int
	var warnings []string

	for _, file := range files {
		pages, err := extractor.ExtractPages(file)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", filepath.Base(file), err))
			skipped++
			bar.Add(1)
			continue
		}

		st, _ := os.Stat(file)
		doc := domain.Document{
			ID:         uuid.New().String(),
			Filename:   filepath.Base(file),
			UploadedAt: time.Now().UTC(),
		}
		if st != nil {
			doc.FileSize = st.Size()
		}

		result, err := ingestUC.Ingest(context.Background(), doc, pages)
		if err != nil {
			if errors.Is(err, domain.ErrNoExtractableContent) {
				warnings = append(warnings, fmt.Sprintf("%s: no extractable text", filepath.Base(file)))
				skipped++
				bar.Add(1)
				continue
			}
			return fmt.Errorf("ingesting %s: %w", filepath.Base(file), err)
		}

		ingested++
		totalChunks += result.ChunkCount
		bar.Add(1)
	}

	fmt.Printf("\nIngest complete in %s:\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Documents ingested: %d\n", ingested)
	fmt.Printf("  Documents skipped:  %d\n", skipped)
	fmt.Printf("  Chunks indexed:     %d\n", totalChunks)

	if len(warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	return nil
}
