// Package vectorindex owns the segments of the question-answering corpus,
// their embeddings and the persisted copy of both.
//
// An Index is constructed from a store and loads whatever that store holds;
// it then grows through Add, which embeds, validates and persists a whole
// batch before making it visible to Search. There is no delete: resetting
// an index means removing its persisted file.
package vectorindex

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ragqa/internal/domain"
	"ragqa/internal/errs"
	"ragqa/internal/port"
)

// Options configures an Index.
type Options struct {
	Metric   Metric
	Language string // normalizer language, recorded in snapshots
	Logger   *slog.Logger
}

// Index is a brute-force nearest-neighbour index over normalized segments.
// Writers are serialized; searches run concurrently against the last
// committed state.
type Index struct {
	store      port.IndexStore
	embedder   port.Embedder
	normalizer port.Normalizer
	metric     Metric
	language   string
	logger     *slog.Logger

	writeMu sync.Mutex

	mu         sync.RWMutex
	segments   []domain.Segment
	dimension  int
	generation uint64
}

// New builds an index and loads the persisted snapshot, if any.
func New(store port.IndexStore, embedder port.Embedder, normalizer port.Normalizer, opts Options) (*Index, error) {
	if store == nil || embedder == nil || normalizer == nil {
		return nil, errs.New(errs.CodeConfigInvalid, "vector index needs a store, an embedder and a normalizer")
	}
	metric, err := ParseMetric(string(opts.Metric))
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigInvalid, "invalid index metric")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ix := &Index{
		store:      store,
		embedder:   embedder,
		normalizer: normalizer,
		metric:     metric,
		language:   opts.Language,
		logger:     logger.With("component", "vectorindex"),
	}
	ix.Load()

	return ix, nil
}

// Add embeds texts and appends them with their metadata as one batch.
// Either every text is indexed and persisted, or the index is unchanged.
func (ix *Index) Add(ctx context.Context, texts []string, metadatas []map[string]string) error {
	if texts == nil || metadatas == nil {
		return errs.New(errs.CodeValidationInvalid, "texts and metadatas are required",
			errs.Field("texts_nil", texts == nil), errs.Field("metadatas_nil", metadatas == nil))
	}
	if len(texts) != len(metadatas) {
		return errs.New(errs.CodeValidationInvalid, "texts and metadatas must have the same length",
			errs.Field("texts", len(texts)), errs.Field("metadatas", len(metadatas)))
	}
	if len(texts) == 0 {
		return nil
	}

	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	normalized := make([]string, len(texts))
	for i, text := range texts {
		n := ix.normalize(text)
		if n == "" {
			return errs.New(errs.CodeValidationInvalid, "text is empty", errs.Field("position", i))
		}
		normalized[i] = n
	}

	vectors, err := ix.embedder.Embed(ctx, normalized)
	if err != nil {
		return errs.Wrap(err, errs.CodeIndexEmbeddingUpstream, "embedding segments",
			errs.Field("model", ix.embedder.ModelName()), errs.Field("count", len(texts)))
	}
	if len(vectors) != len(texts) {
		return errs.New(errs.CodeIndexEmbeddingMalformed, "embedder returned the wrong number of vectors",
			errs.Field("expected", len(texts)), errs.Field("got", len(vectors)))
	}

	ix.mu.RLock()
	current := ix.segments
	dimension := ix.dimension
	ix.mu.RUnlock()

	added := make([]domain.Segment, len(texts))
	for i, vec := range vectors {
		if len(vec) == 0 {
			return errs.New(errs.CodeIndexEmbeddingMalformed, "embedder returned an empty vector", errs.Field("position", i))
		}
		if dimension == 0 {
			dimension = len(vec)
		}
		if len(vec) != dimension {
			return errs.New(errs.CodeIndexDimensionMismatch, "embedding dimension does not match the index",
				errs.Field("expected", dimension), errs.Field("got", len(vec)), errs.Field("position", i))
		}
		if !finite(vec) {
			return errs.New(errs.CodeIndexEmbeddingMalformed, "embedder returned a non-finite vector", errs.Field("position", i))
		}

		metadata := maps.Clone(metadatas[i])
		if metadata == nil {
			metadata = map[string]string{}
		}
		added[i] = domain.Segment{
			ID:         uuid.NewString(),
			Content:    normalized[i],
			RawContent: texts[i],
			Metadata:   metadata,
			Embedding:  slices.Clone(vec),
		}
	}

	next := slices.Concat(current, added)
	if err := ix.store.Save(ix.snapshot(next, dimension)); err != nil {
		return errs.Wrap(err, errs.CodePersistenceSave, "persisting index",
			errs.Field("segments", len(next)))
	}

	ix.mu.Lock()
	ix.segments = next
	ix.dimension = dimension
	ix.generation++
	ix.mu.Unlock()

	ix.logger.Info("segments added", "added", len(added), "total", len(next), "dimension", dimension)
	return nil
}

// Search returns the min(k, Count()) segments closest to query, best first.
// Entries with equal scores keep insertion order. An empty index yields an
// empty result.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, errs.New(errs.CodeValidationInvalid, "k must be positive", errs.Field("k", k))
	}

	ix.mu.RLock()
	segments := ix.segments
	dimension := ix.dimension
	ix.mu.RUnlock()

	if len(segments) == 0 {
		return []domain.RetrievalResult{}, nil
	}

	normalized := ix.normalize(query)
	if normalized == "" {
		return nil, errs.New(errs.CodeValidationInvalid, "query is empty")
	}

	vectors, err := ix.embedder.Embed(ctx, []string{normalized})
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeRetrievalEmbeddingUpstream, "embedding query",
			errs.Field("model", ix.embedder.ModelName()))
	}
	if len(vectors) != 1 || len(vectors[0]) != dimension {
		got := 0
		if len(vectors) > 0 {
			got = len(vectors[0])
		}
		return nil, errs.New(errs.CodeRetrievalEmbeddingMalformed, "query embedding does not match the index",
			errs.Field("vectors", len(vectors)), errs.Field("expected", dimension), errs.Field("got", got))
	}
	queryVec := vectors[0]
	if !finite(queryVec) {
		return nil, errs.New(errs.CodeRetrievalEmbeddingMalformed, "query embedding is not finite")
	}

	type scored struct {
		pos   int
		score float64
	}
	ranked := make([]scored, len(segments))
	for i := range segments {
		ranked[i] = scored{pos: i, score: ix.metric.Score(queryVec, segments[i].Embedding)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ix.metric.Better(ranked[i].score, ranked[j].score)
	})

	k = min(k, len(ranked))
	results := make([]domain.RetrievalResult, k)
	for i := 0; i < k; i++ {
		seg := segments[ranked[i].pos]
		seg.Metadata = maps.Clone(seg.Metadata)
		seg.Embedding = nil
		results[i] = domain.RetrievalResult{Segment: seg, Score: ranked[i].score}
	}

	ix.logger.Debug("search", "k", k, "candidates", len(segments))
	return results, nil
}

// Save writes the current state to the store. An empty index is not written.
func (ix *Index) Save() error {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	ix.mu.RLock()
	segments := ix.segments
	dimension := ix.dimension
	ix.mu.RUnlock()

	if len(segments) == 0 {
		ix.logger.Debug("skipping save of empty index")
		return nil
	}
	if err := ix.store.Save(ix.snapshot(segments, dimension)); err != nil {
		return errs.Wrap(err, errs.CodePersistenceSave, "persisting index", errs.Field("segments", len(segments)))
	}
	return nil
}

// Load replaces the in-memory state with the persisted snapshot. Any
// failure, including a snapshot built with a different model, metric or
// language, is logged and leaves the index empty.
func (ix *Index) Load() {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	segments, dimension, err := ix.loadSnapshot()
	if err != nil {
		ix.logger.Warn("discarding persisted index, starting empty", "error", err)
		segments, dimension = nil, 0
	}

	ix.mu.Lock()
	ix.segments = segments
	ix.dimension = dimension
	ix.generation++
	ix.mu.Unlock()

	if len(segments) > 0 {
		ix.logger.Info("index loaded", "segments", len(segments), "dimension", dimension, "metric", ix.metric)
	}
}

func (ix *Index) loadSnapshot() ([]domain.Segment, int, error) {
	snap, ok, err := ix.store.Load()
	if err != nil {
		return nil, 0, errs.Wrap(err, errs.CodePersistenceLoad, "reading snapshot")
	}
	if !ok || len(snap.Segments) == 0 {
		return nil, 0, nil
	}

	switch {
	case snap.Metric != string(ix.metric):
		return nil, 0, errs.New(errs.CodePersistenceLoad, "snapshot metric differs",
			errs.Field("snapshot", snap.Metric), errs.Field("configured", string(ix.metric)))
	case snap.Model != ix.embedder.ModelName():
		return nil, 0, errs.New(errs.CodePersistenceLoad, "snapshot embedding model differs",
			errs.Field("snapshot", snap.Model), errs.Field("configured", ix.embedder.ModelName()))
	case snap.Language != ix.language:
		return nil, 0, errs.New(errs.CodePersistenceLoad, "snapshot normalizer language differs",
			errs.Field("snapshot", snap.Language), errs.Field("configured", ix.language))
	case snap.Dimension <= 0:
		return nil, 0, errs.New(errs.CodePersistenceLoad, "snapshot has no dimension")
	}

	for i, seg := range snap.Segments {
		if len(seg.Embedding) != snap.Dimension {
			return nil, 0, errs.New(errs.CodePersistenceLoad, "snapshot segment has wrong dimension",
				errs.Field("position", i), errs.Field("expected", snap.Dimension), errs.Field("got", len(seg.Embedding)))
		}
	}

	return snap.Segments, snap.Dimension, nil
}

func (ix *Index) snapshot(segments []domain.Segment, dimension int) port.IndexSnapshot {
	return port.IndexSnapshot{
		Dimension: dimension,
		Metric:    string(ix.metric),
		Model:     ix.embedder.ModelName(),
		Language:  ix.language,
		Segments:  segments,
	}
}

// normalize applies the normalizer. Text made only of stopwords falls back
// to its lowercased form so it can still be embedded; Segment.Content then
// holds that fallback rather than normalizer output.
func (ix *Index) normalize(text string) string {
	if n := strings.TrimSpace(ix.normalizer.Normalize(text)); n != "" {
		return n
	}
	return strings.ToLower(strings.TrimSpace(text))
}

// Count returns the number of indexed segments.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.segments)
}

func (ix *Index) IsEmpty() bool {
	return ix.Count() == 0
}

// Dimension returns the embedding length, or 0 while the index is empty.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dimension
}

// Generation changes every time the visible contents change.
func (ix *Index) Generation() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.generation
}

func (ix *Index) Metric() Metric {
	return ix.metric
}

func (ix *Index) Stats() domain.Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return domain.Stats{
		TotalDocuments: len(ix.segments),
		IsEmpty:        len(ix.segments) == 0,
		Dimension:      ix.dimension,
		Metric:         string(ix.metric),
	}
}
