package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"pdfqa/internal/adapter/cache"
	"pdfqa/internal/adapter/store"
	"pdfqa/internal/domain"
	"pdfqa/internal/port"
)

// NoRelevantContentAnswer is returned when no chunk survives the
// similarity threshold. The completion provider is not called in that
// case.
const NoRelevantContentAnswer = "No relevant information found to answer your question. " +
	"Please make sure you have uploaded PDF documents."

const sourcePreviewLength = 200

// AskOptions bound a question and its answer context.
type AskOptions struct {
	DefaultMaxResults int
	MaxResultsCap     int
	DefaultThreshold  float64
	MaxContextLength  int
	MaxQuestionLength int
}

// AskRequest is one question against the index.
type AskRequest struct {
	Question            string
	MaxResults          int      // 0 = configured default
	SimilarityThreshold *float64 // nil = configured default
	DocumentFilter      string   // empty = all documents
}

// AskUseCase answers questions by retrieving the most relevant chunks
// and synthesizing a grounded answer with source attribution. It owns
// the process-wide query counter, reset on process start.
type AskUseCase struct {
	index     *store.VectorIndex
	embedder  port.Embedder
	completer port.Completer
	opts      AskOptions
	counter   *QueryCounter
	cache     *cache.AnswerCache
	logger    *log.Logger
}

// NewAskUseCase creates a new ask use case.
func NewAskUseCase(
	index *store.VectorIndex,
	embedder port.Embedder,
	completer port.Completer,
	opts AskOptions,
	counter *QueryCounter,
	logger *log.Logger,
) *AskUseCase {
	if logger == nil {
		logger = log.Default()
	}
	if counter == nil {
		counter = &QueryCounter{}
	}
	return &AskUseCase{
		index:     index,
		embedder:  embedder,
		completer: completer,
		opts:      opts,
		counter:   counter,
		logger:    logger,
	}
}

// WithCache attaches an answer cache. Without one every ask hits the
// provider.
func (u *AskUseCase) WithCache(c *cache.AnswerCache) *AskUseCase {
	u.cache = c
	return u
}

// InvalidateCache drops all cached answers. Called after any index
// mutation the use case did not perform itself.
func (u *AskUseCase) InvalidateCache() {
	if u.cache != nil {
		u.cache.Invalidate()
	}
}

// Ask embeds the question, searches the index, assembles a bounded
// context from the retrieved chunks and calls the completion provider.
// The reported confidence is the top retrieved chunk's similarity
// score: a monotonic relevance proxy, not a calibrated probability.
func (u *AskUseCase) Ask(ctx context.Context, req AskRequest) (*domain.AskResult, error) {
	start := time.Now()

	question := sanitizeQuestion(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrValidation)
	}
	if u.opts.MaxQuestionLength > 0 && utf8.RuneCountInString(question) > u.opts.MaxQuestionLength {
		return nil, fmt.Errorf("%w: question exceeds %d characters", domain.ErrValidation, u.opts.MaxQuestionLength)
	}

	k := req.MaxResults
	if k <= 0 {
		k = u.opts.DefaultMaxResults
	}
	if u.opts.MaxResultsCap > 0 && k > u.opts.MaxResultsCap {
		k = u.opts.MaxResultsCap
	}

	threshold := u.opts.DefaultThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}

	if u.cache != nil {
		if cached, hit := u.cache.Get(question, k, threshold, req.DocumentFilter); hit {
			u.counter.Inc()
			cached.Elapsed = time.Since(start)
			return &cached, nil
		}
	}

	// Embed outside the index lock.
	vectors, err := u.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected one query vector, got %d", domain.ErrExternalService, len(vectors))
	}

	results, err := u.index.Search(vectors[0], k, threshold, req.DocumentFilter)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		u.counter.Inc()
		result := domain.AskResult{
			Answer:  NoRelevantContentAnswer,
			Sources: []domain.Source{},
			Query:   question,
			Elapsed: time.Since(start),
		}
		if u.cache != nil {
			u.cache.Put(question, k, threshold, req.DocumentFilter, result)
		}
		return &result, nil
	}

	contextText := assembleContext(results, u.opts.MaxContextLength)

	answer, err := u.completer.Complete(ctx, question, contextText)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	u.counter.Inc()
	u.logger.Printf("answered question (%d sources, top score %.4f, %s)",
		len(results), results[0].Score, time.Since(start).Round(time.Millisecond))

	result := domain.AskResult{
		Answer:     strings.TrimSpace(answer),
		Confidence: results[0].Score,
		Sources:    buildSources(results),
		Query:      question,
		Elapsed:    time.Since(start),
	}
	if u.cache != nil {
		u.cache.Put(question, k, threshold, req.DocumentFilter, result)
	}
	return &result, nil
}

// TotalQueries returns the number of completed asks since process
// start.
func (u *AskUseCase) TotalQueries() int {
	return u.counter.Total()
}

// assembleContext concatenates chunk texts in descending-similarity
// order, each tagged with its page, until maxLen characters. The first
// chunk that would overflow is truncated to fit exactly, never dropped,
// so the answer can always cite at least one chunk.
func assembleContext(results []domain.Retrieved, maxLen int) string {
	var b strings.Builder

	// The budget and all truncation are in runes so multibyte text is
	// never cut mid-character.
	used := 0
	for i, r := range results {
		part := []rune(fmt.Sprintf("[Page %d]: %s", r.Record.PageNumber, r.Record.Text))
		sep := ""
		if i > 0 {
			sep = "\n\n"
		}

		remaining := maxLen - used
		if remaining <= len(sep) {
			break
		}
		if len(sep)+len(part) <= remaining {
			b.WriteString(sep)
			b.WriteString(string(part))
			used += len(sep) + len(part)
			continue
		}

		b.WriteString(sep)
		b.WriteString(string(part[:remaining-len(sep)]))
		break
	}

	return b.String()
}

// buildSources maps retrieved records to attribution entries with a
// bounded content preview.
func buildSources(results []domain.Retrieved) []domain.Source {
	sources := make([]domain.Source, len(results))
	for i, r := range results {
		preview := r.Record.Text
		if runes := []rune(preview); len(runes) > sourcePreviewLength {
			preview = string(runes[:sourcePreviewLength]) + "..."
		}
		sources[i] = domain.Source{
			ChunkID:         r.Record.ChunkID,
			DocumentID:      r.Record.DocumentID,
			Filename:        r.Record.Filename,
			PageNumber:      r.Record.PageNumber,
			Content:         preview,
			SimilarityScore: r.Score,
		}
	}
	return sources
}

// sanitizeQuestion strips non-printable runes and surrounding
// whitespace.
func sanitizeQuestion(q string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return -1
	}, q)
	return strings.TrimSpace(cleaned)
}
