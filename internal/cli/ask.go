package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"pdfqa/config"
	"pdfqa/internal/usecase"
)

var (
	askQuestion   string
	askTopK       int
	askThreshold  float64
	askDocumentID string
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about the ingested documents",
	Long: `Ask a question against the local index. The answer is grounded in the
most relevant chunks and cites the pages it came from.

Examples:
  pdfqa ask -q "What is the cancellation policy?"
  pdfqa ask -q "Who signed the contract?" --top-k 10 --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to ask (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().Float64Var(&askThreshold, "threshold", -1, "minimum similarity score (default from config)")
	askCmd.Flags().StringVar(&askDocumentID, "document", "", "restrict retrieval to one document id")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := newLogger()

	dbPath := config.IndexDBPath(GetDataDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'pdfqa ingest' first")
	}

	idx, err := openIndex(logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	embedder, completer, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	askUC := usecase.NewAskUseCase(idx, embedder, completer, askOptions(cfg), nil, logger)

	req := usecase.AskRequest{
		Question:       askQuestion,
		MaxResults:     askTopK,
		DocumentFilter: askDocumentID,
	}
	if askThreshold >= 0 {
		threshold := askThreshold
		req.SimilarityThreshold = &threshold
	}

	result, err := askUC.Ask(context.Background(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Printf("\nSources (confidence %.2f):\n", result.Confidence)
		for i, src := range result.Sources {
			fmt.Printf("  [%d] %s, page %d (score %.2f)\n", i+1, src.Filename, src.PageNumber, src.SimilarityScore)
		}
	}
	return nil
}
