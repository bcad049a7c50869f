package port

import "pdfqa/internal/domain"

// PageExtractor extracts per-page text from a PDF file. A page with no
// extractable text is returned with empty text rather than omitted, so
// page numbering stays aligned with the source document. PageCount
// reports the document's total page count before any extraction limit,
// so callers can reject oversized documents cheaply.
type PageExtractor interface {
	ExtractPages(path string) ([]domain.PageContent, error)
	PageCount(path string) (int, error)
}
