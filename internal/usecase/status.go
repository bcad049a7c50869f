package usecase

import (
	"sync/atomic"

	"pdfqa/internal/adapter/store"
	"pdfqa/internal/domain"
)

// QueryCounter counts completed asks. Process state: starts at zero on
// every restart.
type QueryCounter struct {
	n atomic.Int64
}

func (c *QueryCounter) Inc() {
	c.n.Add(1)
}

func (c *QueryCounter) Total() int {
	return int(c.n.Load())
}

// StatusUseCase reports the system counters and per-document
// summaries.
type StatusUseCase struct {
	index   *store.VectorIndex
	queries *QueryCounter
}

// NewStatusUseCase creates a new status use case. The counter must be
// the same instance the ask use case increments.
func NewStatusUseCase(index *store.VectorIndex, queries *QueryCounter) *StatusUseCase {
	if queries == nil {
		queries = &QueryCounter{}
	}
	return &StatusUseCase{index: index, queries: queries}
}

// Status returns the current counters. Document and chunk totals
// reflect the persisted index; the query total resets with the
// process.
func (u *StatusUseCase) Status() domain.Stats {
	return domain.Stats{
		TotalDocuments: u.index.DocumentCount(),
		TotalChunks:    u.index.Len(),
		TotalQueries:   u.queries.Total(),
	}
}

// Documents lists per-document summaries, oldest first.
func (u *StatusUseCase) Documents() []domain.Document {
	return u.index.Documents()
}
