// Package pdfext extracts per-page text from PDF files.
package pdfext

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"pdfqa/internal/domain"
)

// Extractor reads PDFs page by page. Pages that yield no text are
// returned with empty text so page numbering stays aligned with the
// source document; a page whose extraction fails is treated the same
// way rather than failing the whole document.
type Extractor struct {
	maxPages int // 0 = no limit
}

// NewExtractor creates an extractor that processes at most maxPages
// pages per document.
func NewExtractor(maxPages int) *Extractor {
	return &Extractor{maxPages: maxPages}
}

// ExtractPages extracts text from every page of the PDF at path.
func (e *Extractor) ExtractPages(path string) ([]domain.PageContent, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or corrupted PDF", domain.ErrValidation)
	}
	defer f.Close()

	numPages := reader.NumPage()
	if e.maxPages > 0 && numPages > e.maxPages {
		numPages = e.maxPages
	}

	pages := make([]domain.PageContent, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, domain.PageContent{PageNumber: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, domain.PageContent{PageNumber: i})
			continue
		}

		pages = append(pages, domain.PageContent{
			PageNumber: i,
			Text:       strings.TrimSpace(sanitizeText(text)),
		})
	}

	return pages, nil
}

// PageCount returns the total number of pages in the PDF at path,
// before any extraction limit is applied.
func (e *Extractor) PageCount(path string) (int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid or corrupted PDF", domain.ErrValidation)
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// sanitizeText keeps printable runes and whitespace, dropping control
// characters that occasionally survive PDF extraction.
func sanitizeText(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
}
