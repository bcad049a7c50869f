package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"pdfqa/config"
)

var (
	cfgFile string
	cfg     *config.Config
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "pdfqa",
	Short: "PDF question answering - ingest PDFs and ask questions about them",
	Long: `pdfqa ingests PDF documents into a local vector index and answers
questions about their content using an OpenAI-compatible provider,
with page-level source attribution.

Example usage:
  pdfqa ingest ./docs              # Ingest every PDF under ./docs
  pdfqa ask -q "What is the fee?"  # Ask a question against the index
  pdfqa serve                      # Run the HTTP API`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if dataDir == "" {
			dataDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(dataDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pdfqa.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "d", "", "data directory holding the index (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetDataDir() string {
	return dataDir
}
