package port

import "pdfqa/internal/domain"

type Chunker interface {
	// Chunk splits the ordered per-page text of a document into
	// page-bounded chunks. Pages with no text produce no chunks.
	Chunk(docID string, pages []domain.PageContent) []domain.Chunk
}
