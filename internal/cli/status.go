package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"pdfqa/config"
	"pdfqa/internal/usecase"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and ingested documents",
	RunE:  runStatus,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every document and vector from the index",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	dbPath := config.IndexDBPath(GetDataDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No index found.")
		return nil
	}

	idx, err := openIndex(logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	statusUC := usecase.NewStatusUseCase(idx, nil)
	stats := statusUC.Status()

	fmt.Printf("Documents: %d\n", stats.TotalDocuments)
	fmt.Printf("Chunks:    %d\n", stats.TotalChunks)

	docs := statusUC.Documents()
	if len(docs) > 0 {
		fmt.Println()
		for _, doc := range docs {
			fmt.Printf("  %s  %s (%d pages, %d chunks)\n",
				doc.ID, doc.Filename, doc.PageCount, doc.ChunkCount)
		}
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	idx, err := openIndex(logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.Reset(); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	fmt.Println("Index reset.")
	return nil
}
