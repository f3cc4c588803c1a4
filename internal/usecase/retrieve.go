package usecase

import (
	"context"
	"log/slog"
	"strings"

	"ragqa/internal/adapter/cache"
	"ragqa/internal/domain"
	"ragqa/internal/errs"
	"ragqa/internal/port"
)

// DefaultTopK is used when a caller passes a non-positive k.
const DefaultTopK = 5

// Reranker reorders a candidate pool and keeps at most k of it.
type Reranker interface {
	Rerank(candidates []domain.RetrievalResult, k int) []domain.RetrievalResult
}

// RetrieveUseCase handles search and retrieval operations. It is the seam
// between answer synthesis and the index: callers never see the metric or
// the normalizer.
type RetrieveUseCase struct {
	index             port.Index
	cache             *cache.QueryCache // nil disables caching
	reranker          Reranker          // nil keeps nearest-neighbour order
	defaultK          int
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
	logger            *slog.Logger
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(
	index port.Index,
	queryCache *cache.QueryCache,
	defaultK int,
	minScoreThreshold float64,
	logger *slog.Logger,
) *RetrieveUseCase {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		index:             index,
		cache:             queryCache,
		defaultK:          defaultK,
		minScoreThreshold: minScoreThreshold,
		logger:            logger,
	}
}

// WithReranker makes Retrieve draw a pool of 2k candidates and let r pick k.
func (u *RetrieveUseCase) WithReranker(r Reranker) *RetrieveUseCase {
	u.reranker = r
	return u
}

// Retrieve returns up to k segments for question, best first.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievalResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errs.New(errs.CodeValidationInvalid, "question is empty")
	}
	if k <= 0 {
		k = u.defaultK
	}

	generation := u.index.Generation()
	if u.cache != nil {
		if results, hit := u.cache.Get(question, k, generation); hit {
			u.logger.Debug("retrieval cache hit", "k", k)
			return results, nil
		}
	}

	pool := k
	if u.reranker != nil {
		pool = k * 2
	}

	results, err := u.index.Search(ctx, question, pool)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeRetrievalFailure, "retrieving passages", errs.Field("k", k))
	}

	if u.reranker != nil {
		results = u.reranker.Rerank(results, k)
	}

	if u.minScoreThreshold > 0 {
		results = u.filterByThreshold(results)
	}

	if u.cache != nil {
		u.cache.Put(question, k, generation, results)
	}
	return results, nil
}

func (u *RetrieveUseCase) IsEmpty() bool {
	return u.index.IsEmpty()
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.RetrievalResult) []domain.RetrievalResult {
	filtered := make([]domain.RetrievalResult, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// RetrievalHit is a flattened result for CLI and HTTP output.
type RetrievalHit struct {
	Source   string            `json:"source"`
	Score    float64           `json:"score"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Hits flattens retrieval results for display.
func Hits(results []domain.RetrievalResult) []RetrievalHit {
	hits := make([]RetrievalHit, len(results))
	for i, r := range results {
		hits[i] = RetrievalHit{
			Source:   r.Segment.Source(),
			Score:    r.Score,
			Text:     r.Segment.RawContent,
			Metadata: r.Segment.Metadata,
		}
	}
	return hits
}
