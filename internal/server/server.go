// Package server exposes the ingestion and question-answering
// operations over HTTP.
package server

import (
	"log"
	"net/http"
	"time"

	"pdfqa/config"
	"pdfqa/internal/adapter/store"
	"pdfqa/internal/port"
	"pdfqa/internal/usecase"
)

// Server wires the use cases to HTTP handlers.
type Server struct {
	ingest    *usecase.IngestUseCase
	ask       *usecase.AskUseCase
	status    *usecase.StatusUseCase
	index     *store.VectorIndex
	extractor port.PageExtractor
	cfg       *config.Config
	logger    *log.Logger
}

// New creates a server over the given use cases.
func New(
	ingest *usecase.IngestUseCase,
	ask *usecase.AskUseCase,
	status *usecase.StatusUseCase,
	index *store.VectorIndex,
	extractor port.PageExtractor,
	cfg *config.Config,
	logger *log.Logger,
) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		ingest:    ingest,
		ask:       ask,
		status:    status,
		index:     index,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/ask", s.handleAsk)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/documents", s.handleDocuments)
	mux.HandleFunc("/api/reset", s.handleReset)

	return securityHeaders(mux)
}

// ListenAndServe serves on the configured address until the server
// fails or the process stops.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Printf("listening on %s", s.cfg.Server.Addr)
	return srv.ListenAndServe()
}

// securityHeaders adds the standard response hardening headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}
