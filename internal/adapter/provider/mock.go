package provider

import "context"

// MockEmbedder produces deterministic vectors derived from the input
// runes. Used in tests and offline runs.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = make([]float32, e.dimension)

		for j, r := range texts[i] {
			if j < e.dimension {
				embeddings[i][j] = float32(r) / 1000.0
			}
		}
	}
	return embeddings, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}

// MockCompleter echoes a canned answer without calling any provider.
type MockCompleter struct {
	Answer string
	Calls  int
}

func NewMockCompleter(answer string) *MockCompleter {
	return &MockCompleter{Answer: answer}
}

func (c *MockCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	c.Calls++
	return c.Answer, nil
}

func (c *MockCompleter) ModelName() string {
	return "mock"
}
