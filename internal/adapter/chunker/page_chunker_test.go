package chunker

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"pdfqa/internal/domain"
)

func TestSinglePartialWindow(t *testing.T) {
	c := NewPageChunker(1000, 200)

	pages := []domain.PageContent{
		{PageNumber: 1, Text: strings.Repeat("A", 600)},
	}

	chunks := c.Chunk("doc1", pages)

	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk for a 600-char page, got %d", len(chunks))
	}
	if chunks[0].PageNumber != 1 {
		t.Errorf("expected page 1, got %d", chunks[0].PageNumber)
	}
	if len(chunks[0].Text) != 600 {
		t.Errorf("expected 600-char chunk, got %d", len(chunks[0].Text))
	}
	if chunks[0].ID != "doc1_page_1_chunk_0" {
		t.Errorf("unexpected chunk id: %s", chunks[0].ID)
	}
}

func TestWindowPositions(t *testing.T) {
	c := NewPageChunker(1000, 200)

	text := strings.Repeat("x", 2500)
	pages := []domain.PageContent{
		{PageNumber: 1, Text: text},
		{PageNumber: 2, Text: text},
		{PageNumber: 3, Text: text},
	}

	chunks := c.Chunk("doc1", pages)

	// Window slides 0..1000, 800..1800, 1600..2500 within each page.
	perPage := 3
	if len(chunks) != perPage*3 {
		t.Fatalf("expected %d chunks, got %d", perPage*3, len(chunks))
	}

	for i, chunk := range chunks {
		wantPage := i/perPage + 1
		if chunk.PageNumber != wantPage {
			t.Errorf("chunk %d: expected page %d, got %d", i, wantPage, chunk.PageNumber)
		}
		wantSeq := i % perPage
		if chunk.Seq != wantSeq {
			t.Errorf("chunk %d: expected seq %d, got %d", i, wantSeq, chunk.Seq)
		}
	}

	// Lengths per page: full, full, final partial.
	if len(chunks[0].Text) != 1000 || len(chunks[1].Text) != 1000 {
		t.Errorf("expected full 1000-char windows, got %d and %d", len(chunks[0].Text), len(chunks[1].Text))
	}
	if len(chunks[2].Text) != 900 {
		t.Errorf("expected 900-char final window, got %d", len(chunks[2].Text))
	}
}

func TestOverlapContent(t *testing.T) {
	c := NewPageChunker(10, 4)

	// 0123456789 abcdef...
	text := "0123456789abcdefghij"
	pages := []domain.PageContent{{PageNumber: 1, Text: text}}

	chunks := c.Chunk("doc1", pages)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "0123456789" {
		t.Errorf("unexpected first chunk: %q", chunks[0].Text)
	}
	if chunks[1].Text != "6789abcdef" {
		t.Errorf("expected 4-char overlap, got %q", chunks[1].Text)
	}
}

func TestMultibyteTextChunksOnRuneBoundaries(t *testing.T) {
	c := NewPageChunker(5, 2)

	// Two-byte runes: a byte-based window would split one at every
	// chunk boundary.
	text := strings.Repeat("é", 12)
	pages := []domain.PageContent{{PageNumber: 1, Text: text}}

	chunks := c.Chunk("doc1", pages)

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, chunk := range chunks {
		if !utf8.ValidString(chunk.Text) {
			t.Errorf("chunk %s contains invalid UTF-8: %q", chunk.ID, chunk.Text)
		}
	}
	if chunks[0].Text != strings.Repeat("é", 5) {
		t.Errorf("expected a 5-rune first chunk, got %q", chunks[0].Text)
	}
	if got := []rune(chunks[1].Text); len(got) != 5 || string(got[:2]) != "éé" {
		t.Errorf("expected a 2-rune overlap in runes, got %q", chunks[1].Text)
	}
}

func TestEmptyPagesSkipped(t *testing.T) {
	c := NewPageChunker(100, 20)

	pages := []domain.PageContent{
		{PageNumber: 1, Text: ""},
		{PageNumber: 2, Text: "   \n\t  "},
		{PageNumber: 3, Text: "some actual content"},
	}

	chunks := c.Chunk("doc1", pages)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].PageNumber != 3 {
		t.Errorf("expected chunk from page 3, got page %d", chunks[0].PageNumber)
	}
	if chunks[0].Seq != 0 {
		t.Errorf("expected intra-page seq 0, got %d", chunks[0].Seq)
	}
}

func TestAllPagesEmpty(t *testing.T) {
	c := NewPageChunker(100, 20)

	pages := []domain.PageContent{
		{PageNumber: 1, Text: ""},
		{PageNumber: 2, Text: ""},
	}

	if chunks := c.Chunk("doc1", pages); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestDeterminism(t *testing.T) {
	c := NewPageChunker(50, 10)

	pages := []domain.PageContent{
		{PageNumber: 1, Text: strings.Repeat("the quick brown fox ", 20)},
		{PageNumber: 2, Text: strings.Repeat("jumped over the dog ", 15)},
	}

	first := c.Chunk("doc1", pages)
	second := c.Chunk("doc1", pages)

	if !reflect.DeepEqual(first, second) {
		t.Error("chunking the same input twice produced different results")
	}
}

func TestNoChunkCrossesPages(t *testing.T) {
	c := NewPageChunker(1000, 200)

	pages := []domain.PageContent{
		{PageNumber: 1, Text: strings.Repeat("a", 300)},
		{PageNumber: 2, Text: strings.Repeat("b", 300)},
	}

	chunks := c.Chunk("doc1", pages)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if strings.Contains(chunk.Text, "a") && strings.Contains(chunk.Text, "b") {
			t.Errorf("chunk %s spans two pages", chunk.ID)
		}
	}
}

func TestInvalidParamsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for overlap >= chunk size")
		}
	}()
	NewPageChunker(10, 10)
}
