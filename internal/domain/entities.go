package domain

import "time"

// Document describes one ingested PDF. Immutable after ingestion; removed
// only by an explicit reset.
type Document struct {
	ID         string    `json:"document_id"`
	Filename   string    `json:"filename"`
	PageCount  int       `json:"page_count"`
	ChunkCount int       `json:"chunk_count"`
	FileHash   string    `json:"file_hash,omitempty"`
	FileSize   int64     `json:"file_size,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PageContent is the extracted text of a single page. Pages with no
// extractable text carry an empty Text and produce no chunks.
type PageContent struct {
	PageNumber int
	Text       string
}

// Chunk is a page-bounded slice of a document's text, the unit of
// embedding and retrieval. Seq is the intra-page sequence index; the
// chunk id is derived deterministically from DocumentID, PageNumber and
// Seq so the same input always chunks to the same ids.
type Chunk struct {
	ID         string
	DocumentID string
	PageNumber int
	Seq        int
	Text       string
}

// ChunkRecord is the metadata stored alongside a chunk's embedding,
// addressed by the vector id the embedding occupies in the index.
type ChunkRecord struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// Retrieved is one search hit: the record at VectorID plus its
// similarity to the query.
type Retrieved struct {
	VectorID int
	Score    float64
	Record   ChunkRecord
}

// Source attributes part of an answer to a chunk.
type Source struct {
	ChunkID         string  `json:"chunk_id"`
	DocumentID      string  `json:"document_id"`
	Filename        string  `json:"filename"`
	PageNumber      int     `json:"page_number"`
	Content         string  `json:"content"`
	SimilarityScore float64 `json:"similarity_score"`
}

// AskResult is the outcome of one question. Confidence is the top
// retrieved chunk's similarity score: a monotonic relevance proxy, not a
// calibrated probability.
type AskResult struct {
	Answer     string        `json:"answer"`
	Confidence float64       `json:"confidence_score"`
	Sources    []Source      `json:"sources"`
	Query      string        `json:"query"`
	Elapsed    time.Duration `json:"-"`
}

// IngestResult summarizes one successful ingestion.
type IngestResult struct {
	DocumentID     string        `json:"document_id"`
	ChunkCount     int           `json:"chunk_count"`
	PagesProcessed int           `json:"pages_processed"`
	Elapsed        time.Duration `json:"-"`
}

// Stats are the system counters. TotalDocuments and TotalChunks reflect
// the persisted index; TotalQueries is process state reset on restart.
type Stats struct {
	TotalDocuments int `json:"total_documents"`
	TotalChunks    int `json:"total_chunks"`
	TotalQueries   int `json:"total_queries"`
}
