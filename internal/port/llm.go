package port

import "context"

// Completer generates a grounded answer from a question and the context
// assembled from retrieved chunks.
type Completer interface {
	// Complete answers the question using only the provided context.
	Complete(ctx context.Context, question, contextText string) (string, error)

	// ModelName returns the name of the completion model.
	ModelName() string
}
