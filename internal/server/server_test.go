package server

import (
	"bytes"
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdfqa/config"
	"pdfqa/internal/adapter/chunker"
	"pdfqa/internal/adapter/provider"
	"pdfqa/internal/adapter/store"
	"pdfqa/internal/domain"
	"pdfqa/internal/usecase"
)

// fakeExtractor returns canned pages regardless of the file content.
type fakeExtractor struct {
	pages     []domain.PageContent
	pageCount int // 0 = len(pages)
}

func (e *fakeExtractor) ExtractPages(string) ([]domain.PageContent, error) {
	return e.pages, nil
}

func (e *fakeExtractor) PageCount(string) (int, error) {
	if e.pageCount > 0 {
		return e.pageCount, nil
	}
	return len(e.pages), nil
}

func newTestServer(t *testing.T, ext *fakeExtractor) *Server {
	t.Helper()
	if ext == nil {
		ext = &fakeExtractor{}
	}

	cfg := config.DefaultConfig()
	logger := log.New(os.Stderr, "", 0)

	dimension := 8
	idx, err := store.Open(filepath.Join(t.TempDir(), "index.db"), dimension, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })

	embedder := provider.NewMockEmbedder(dimension)
	completer := provider.NewMockCompleter("The answer is on page 1.")
	counter := &usecase.QueryCounter{}

	ingest := usecase.NewIngestUseCase(idx, embedder, chunker.NewPageChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap),
		usecase.IngestLimits{
			MaxPages:             cfg.Limits.MaxPDFPages,
			MaxChunksPerDocument: cfg.Limits.MaxChunksPerDocument,
			MaxTotalChunks:       cfg.Limits.MaxTotalChunks,
		}, logger)
	ask := usecase.NewAskUseCase(idx, embedder, completer, usecase.AskOptions{
		DefaultMaxResults: cfg.Retrieval.MaxResults,
		MaxResultsCap:     cfg.Retrieval.MaxResultsCap,
		DefaultThreshold:  cfg.Retrieval.SimilarityThreshold,
		MaxContextLength:  cfg.Retrieval.MaxContextLength,
		MaxQuestionLength: cfg.Limits.MaxQuestionLength,
	}, counter, logger)
	status := usecase.NewStatusUseCase(idx, counter)

	return New(ingest, ask, status, idx, ext, cfg, logger)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func uploadPDF(t *testing.T, handler http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAskAgainstEmptyIndex(t *testing.T) {
	handler := newTestServer(t, nil).Handler()

	rec := postJSON(t, handler, "/api/ask", askRequest{Question: "unrelated question"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("expected empty sources, got %d", len(resp.Sources))
	}
	if resp.ConfidenceScore != 0 {
		t.Errorf("expected zero confidence, got %v", resp.ConfidenceScore)
	}
	if !strings.Contains(resp.Answer, "No relevant information") {
		t.Errorf("expected explicit no-content answer, got %q", resp.Answer)
	}
}

func TestAskValidationError(t *testing.T) {
	handler := newTestServer(t, nil).Handler()

	rec := postJSON(t, handler, "/api/ask", askRequest{Question: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadAndAskFlow(t *testing.T) {
	pages := []domain.PageContent{
		{PageNumber: 1, Text: strings.Repeat("printing and typesetting ", 40)},
	}
	handler := newTestServer(t, &fakeExtractor{pages: pages}).Handler()

	rec := uploadPDF(t, handler, "report.pdf", []byte("%PDF-1.4 fake"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var up uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &up); err != nil {
		t.Fatal(err)
	}
	if up.DocumentID == "" {
		t.Error("expected a document id")
	}
	if up.ChunkCount == 0 || up.PagesProcessed != 1 {
		t.Errorf("unexpected upload summary: %+v", up)
	}

	rec = postJSON(t, handler, "/api/ask", askRequest{Question: "what about printing?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("ask: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Sources) == 0 {
		t.Error("expected at least one source")
	}
	if resp.Answer != "The answer is on page 1." {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var stats domain.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalDocuments != 1 {
		t.Errorf("expected 1 document, got %d", stats.TotalDocuments)
	}
	if stats.TotalChunks != up.ChunkCount {
		t.Errorf("expected %d chunks, got %d", up.ChunkCount, stats.TotalChunks)
	}
	if stats.TotalQueries != 1 {
		t.Errorf("expected 1 query, got %d", stats.TotalQueries)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	handler := newTestServer(t, nil).Handler()

	rec := uploadPDF(t, handler, "notes.txt", []byte("plain text"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-PDF upload, got %d", rec.Code)
	}
}

func TestUploadRejectsOversizedPDF(t *testing.T) {
	pages := []domain.PageContent{{PageNumber: 1, Text: "content"}}
	ext := &fakeExtractor{pages: pages, pageCount: 501}
	handler := newTestServer(t, ext).Handler()

	rec := uploadPDF(t, handler, "huge.pdf", []byte("%PDF"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a PDF over the page limit, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Error, "501") {
		t.Errorf("expected the page count in the error, got %q", resp.Error)
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	handler := newTestServer(t, nil).Handler()

	rec := uploadPDF(t, handler, "empty.pdf", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty upload, got %d", rec.Code)
	}
}

func TestReset(t *testing.T) {
	pages := []domain.PageContent{{PageNumber: 1, Text: strings.Repeat("content ", 50)}}
	handler := newTestServer(t, &fakeExtractor{pages: pages}).Handler()

	if rec := uploadPDF(t, handler, "report.pdf", []byte("%PDF")); rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var stats domain.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalDocuments != 0 || stats.TotalChunks != 0 {
		t.Errorf("expected empty index after reset, got %+v", stats)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestServer(t, nil).Handler()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/status"},
		{http.MethodPost, "/api/documents"},
		{http.MethodGet, "/api/ask"},
		{http.MethodGet, "/api/upload"},
		{http.MethodGet, "/api/reset"},
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := newTestServer(t, nil).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options header")
	}
}

func TestRootAndHealth(t *testing.T) {
	handler := newTestServer(t, nil).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("root: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path: expected 404, got %d", rec.Code)
	}
}
