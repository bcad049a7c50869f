package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"pdfqa/internal/adapter/cache"
	"pdfqa/internal/adapter/store"
	"pdfqa/internal/domain"
	"pdfqa/internal/port"
)

// IngestLimits are the fail-fast ceilings checked before any embedding
// call is made.
type IngestLimits struct {
	MaxPages             int
	MaxChunksPerDocument int
	MaxTotalChunks       int
}

// IngestUseCase turns a document's per-page text into embedded,
// persisted, searchable chunks.
type IngestUseCase struct {
	index    *store.VectorIndex
	embedder port.Embedder
	chunker  port.Chunker
	limits   IngestLimits
	cache    *cache.AnswerCache
	logger   *log.Logger
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(
	index *store.VectorIndex,
	embedder port.Embedder,
	chunker port.Chunker,
	limits IngestLimits,
	logger *log.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = log.Default()
	}
	return &IngestUseCase{
		index:    index,
		embedder: embedder,
		chunker:  chunker,
		limits:   limits,
		logger:   logger,
	}
}

// WithCache attaches the answer cache so cached answers are dropped
// whenever a document is added.
func (u *IngestUseCase) WithCache(c *cache.AnswerCache) *IngestUseCase {
	u.cache = c
	return u
}

// Ingest chunks the pages, embeds every chunk in one batched provider
// call, and appends vectors and metadata records to the index as a
// single persisted unit. Nothing is committed unless embedding the
// whole document succeeds.
func (u *IngestUseCase) Ingest(ctx context.Context, doc domain.Document, pages []domain.PageContent) (*domain.IngestResult, error) {
	start := time.Now()

	if u.limits.MaxPages > 0 && len(pages) > u.limits.MaxPages {
		return nil, fmt.Errorf("%w: document has %d pages, limit is %d",
			domain.ErrValidation, len(pages), u.limits.MaxPages)
	}

	chunks := u.chunker.Chunk(doc.ID, pages)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document %s yields zero chunks", domain.ErrNoExtractableContent, doc.ID)
	}

	if u.limits.MaxChunksPerDocument > 0 && len(chunks) > u.limits.MaxChunksPerDocument {
		return nil, fmt.Errorf("%w: document produces %d chunks, limit is %d",
			domain.ErrValidation, len(chunks), u.limits.MaxChunksPerDocument)
	}
	if u.limits.MaxTotalChunks > 0 && u.index.Len()+len(chunks) > u.limits.MaxTotalChunks {
		return nil, fmt.Errorf("%w: index would exceed %d total chunks",
			domain.ErrValidation, u.limits.MaxTotalChunks)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	// The provider call happens before the index lock is taken; a slow
	// embedding never blocks concurrent searches.
	vectors, err := u.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: embedded %d of %d chunks", domain.ErrExternalService, len(vectors), len(chunks))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]domain.ChunkRecord, len(chunks))
	pagesSeen := make(map[int]struct{})
	for i, chunk := range chunks {
		records[i] = domain.ChunkRecord{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Filename:   doc.Filename,
			PageNumber: chunk.PageNumber,
			Text:       chunk.Text,
		}
		pagesSeen[chunk.PageNumber] = struct{}{}
	}

	doc.ChunkCount = len(chunks)
	doc.PageCount = len(pagesSeen)
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	firstID, err := u.index.AppendDocument(doc, records, vectors)
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		u.cache.Invalidate()
	}

	u.logger.Printf("ingested document %s (%s): %d pages, %d chunks, vector ids %d-%d, %s",
		doc.ID, doc.Filename, doc.PageCount, doc.ChunkCount, firstID, firstID+len(chunks)-1,
		time.Since(start).Round(time.Millisecond))

	return &domain.IngestResult{
		DocumentID:     doc.ID,
		ChunkCount:     len(chunks),
		PagesProcessed: len(pagesSeen),
		Elapsed:        time.Since(start),
	}, nil
}
