package chunker

import (
	"fmt"
	"strings"

	"pdfqa/internal/domain"
)

// PageChunker splits per-page text into fixed-size overlapping chunks.
// The window never crosses a page boundary, so every chunk is
// attributable to exactly one page.
type PageChunker struct {
	chunkSize int
	overlap   int
}

// NewPageChunker creates a chunker with the given window size and
// overlap in characters. Requires 0 <= overlap < chunkSize.
func NewPageChunker(chunkSize, overlap int) *PageChunker {
	if chunkSize <= 0 {
		panic(fmt.Sprintf("chunker: chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 || overlap >= chunkSize {
		panic(fmt.Sprintf("chunker: overlap must satisfy 0 <= overlap < chunk size, got %d", overlap))
	}
	return &PageChunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Chunk slides a window of chunkSize characters over each page,
// advancing by chunkSize-overlap. The final partial window is kept
// as-is. Pages with no text are skipped and produce no chunks.
func (c *PageChunker) Chunk(docID string, pages []domain.PageContent) []domain.Chunk {
	var chunks []domain.Chunk

	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}

		// Window positions are in runes, not bytes, so a multibyte
		// character is never split across chunks.
		runes := []rune(text)
		step := c.chunkSize - c.overlap
		seq := 0
		for start := 0; start < len(runes); start += step {
			end := start + c.chunkSize
			if end > len(runes) {
				end = len(runes)
			}

			chunks = append(chunks, domain.Chunk{
				ID:         ChunkID(docID, page.PageNumber, seq),
				DocumentID: docID,
				PageNumber: page.PageNumber,
				Seq:        seq,
				Text:       string(runes[start:end]),
			})
			seq++

			if end == len(runes) {
				break
			}
		}
	}

	return chunks
}

// ChunkID derives the deterministic chunk id from the document id, the
// 1-based page number and the intra-page sequence index. The same input
// always yields the same id.
func ChunkID(docID string, pageNumber, seq int) string {
	return fmt.Sprintf("%s_page_%d_chunk_%d", docID, pageNumber, seq)
}
