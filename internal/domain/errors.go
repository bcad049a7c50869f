package domain

import "errors"

// Failure taxonomy for ingestion and question answering. Callers match
// with errors.Is; wrapping adds context without losing the category.
var (
	// ErrValidation marks input rejected before any side effect
	// (empty question, oversized document).
	ErrValidation = errors.New("validation failed")

	// ErrNoExtractableContent marks a document whose pages yield zero
	// chunks. Nothing is persisted.
	ErrNoExtractableContent = errors.New("no extractable content")

	// ErrExternalService marks an embedding or completion provider
	// failure after retries are exhausted. The operation aborts with
	// nothing partially committed; the condition is retryable.
	ErrExternalService = errors.New("external service unavailable")

	// ErrIndexCorrupt marks an unreadable or misaligned persisted
	// snapshot. Recovered by starting from an empty index.
	ErrIndexCorrupt = errors.New("index corrupted")

	// ErrNotFound marks a stale vector id lookup.
	ErrNotFound = errors.New("not found")
)
