package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdfqa/internal/domain"
	"pdfqa/internal/usecase"
)

type askRequest struct {
	Question            string   `json:"question"`
	MaxResults          int      `json:"max_results,omitempty"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	DocumentID          string   `json:"document_id,omitempty"`
}

type askResponse struct {
	Answer          string          `json:"answer"`
	ConfidenceScore float64         `json:"confidence_score"`
	Sources         []domain.Source `json:"sources"`
	Query           string          `json:"query"`
	ProcessingTime  float64         `json:"processing_time"`
}

type uploadResponse struct {
	Message        string  `json:"message"`
	DocumentID     string  `json:"document_id"`
	PagesProcessed int     `json:"pages_processed"`
	ChunkCount     int     `json:"chunk_count"`
	ProcessingTime float64 `json:"processing_time"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Resource not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "PDF question answering service is running",
		"status":  "healthy",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	maxSize := s.cfg.Limits.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("File too large. Maximum size is %d bytes", maxSize),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing file field"})
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid file type. Only PDF files are allowed"})
		return
	}

	docID := uuid.New().String()
	filename := sanitizeFilename(header.Filename)

	// The PDF library needs a file on disk.
	tmpPath := filepath.Join(os.TempDir(), docID+".pdf")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		s.internalError(w, err)
		return
	}
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, file)
	tmp.Close()
	if err != nil {
		s.internalError(w, err)
		return
	}
	if size == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Empty file uploaded"})
		return
	}

	start := time.Now()

	// Cheap page count before full extraction.
	pageCount, err := s.extractor.PageCount(tmpPath)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if max := s.cfg.Limits.MaxPDFPages; max > 0 && pageCount > max {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("PDF has %d pages. Maximum is %d", pageCount, max),
		})
		return
	}

	pages, err := s.extractor.ExtractPages(tmpPath)
	if err != nil {
		s.writeError(w, err)
		return
	}

	doc := domain.Document{
		ID:         docID,
		Filename:   filename,
		FileSize:   size,
		UploadedAt: time.Now().UTC(),
	}
	if hash, err := fileSHA256(tmpPath); err == nil {
		doc.FileHash = hash
	}

	result, err := s.ingest.Ingest(r.Context(), doc, pages)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:        "PDF uploaded and processed successfully",
		DocumentID:     result.DocumentID,
		PagesProcessed: result.PagesProcessed,
		ChunkCount:     result.ChunkCount,
		ProcessingTime: time.Since(start).Seconds(),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	result, err := s.ask.Ask(r.Context(), usecase.AskRequest{
		Question:            req.Question,
		MaxResults:          req.MaxResults,
		SimilarityThreshold: req.SimilarityThreshold,
		DocumentFilter:      req.DocumentID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:          result.Answer,
		ConfidenceScore: result.Confidence,
		Sources:         result.Sources,
		Query:           result.Query,
		ProcessingTime:  result.Elapsed.Seconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}
	docs := s.status.Documents()
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	if err := s.index.Reset(); err != nil {
		s.internalError(w, err)
		return
	}
	s.ask.InvalidateCache()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Index reset"})
}

// writeError maps a failure to a status code and a user-facing message
// that never includes provider bodies or file paths.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoExtractableContent):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No extractable text content found in PDF"})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: userMessage(err)})
	case errors.Is(err, domain.ErrExternalService):
		s.logger.Printf("external service failure: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Service temporarily unavailable"})
	default:
		s.internalError(w, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}

// userMessage strips the sentinel prefix from a validation error,
// leaving the human-readable part.
func userMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fileSHA256 hashes the file at path for integrity reporting.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// sanitizeFilename keeps a conservative character set and bounds the
// length, guarding against traversal and filesystem quirks.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return -1
		}
	}, name)
	if len(cleaned) > 255 {
		cleaned = cleaned[:255]
	}
	if cleaned == "" {
		cleaned = "document.pdf"
	}
	return cleaned
}
