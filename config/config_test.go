package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.ChunkSize != 1000 {
		t.Errorf("expected ChunkSize=1000, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.Overlap != 200 {
		t.Errorf("expected Overlap=200, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Retrieval.MaxResults != 5 {
		t.Errorf("expected MaxResults=5, got %d", cfg.Retrieval.MaxResults)
	}
	if cfg.Retrieval.MaxContextLength != 4000 {
		t.Errorf("expected MaxContextLength=4000, got %d", cfg.Retrieval.MaxContextLength)
	}
	if cfg.Provider.Dimension != 1536 {
		t.Errorf("expected Dimension=1536, got %d", cfg.Provider.Dimension)
	}
	if cfg.Limits.MaxQuestionLength != 1000 {
		t.Errorf("expected MaxQuestionLength=1000, got %d", cfg.Limits.MaxQuestionLength)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pdfqa.yaml")

	content := `
chunking:
  chunk_size: 800
  overlap: 100
retrieval:
  max_results: 10
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunking.ChunkSize != 800 {
		t.Errorf("expected ChunkSize=800, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.Overlap != 100 {
		t.Errorf("expected Overlap=100, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Retrieval.MaxResults != 10 {
		t.Errorf("expected MaxResults=10, got %d", cfg.Retrieval.MaxResults)
	}
}

func TestLoad_InvalidOverlap(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pdfqa.yaml")

	content := `
chunking:
  chunk_size: 100
  overlap: 100
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for overlap >= chunk_size")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pdfqa.yaml")

	content := `
retrieval:
  max_context_length: 8000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retrieval.MaxContextLength != 8000 {
		t.Errorf("expected MaxContextLength=8000, got %d", cfg.Retrieval.MaxContextLength)
	}
}

func TestIndexDBPath(t *testing.T) {
	path := IndexDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".pdfqa", "index.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}
