package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/adapter/analyzer"
	"ragqa/internal/adapter/cache"
	"ragqa/internal/adapter/chunker"
	"ragqa/internal/adapter/embedding"
	"ragqa/internal/adapter/extract"
	"ragqa/internal/adapter/fs"
	"ragqa/internal/adapter/memstore"
	"ragqa/internal/adapter/rerank"
	"ragqa/internal/domain"
	"ragqa/internal/errs"
	"ragqa/internal/port"
	"ragqa/internal/vectorindex"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeLLM struct {
	mu      sync.Mutex
	text    string
	usage   *domain.Usage
	err     error
	prompts []string
}

func (l *fakeLLM) Complete(_ context.Context, _, prompt string) (port.Completion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts = append(l.prompts, prompt)
	if l.err != nil {
		return port.Completion{}, l.err
	}
	return port.Completion{Text: l.text, Usage: l.usage}, nil
}

func (l *fakeLLM) ModelName() string { return "fake" }

func (l *fakeLLM) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

// countingIndex serves fixed results and counts searches.
type countingIndex struct {
	results    []domain.RetrievalResult
	err        error
	searches   int
	lastK      int
	generation uint64
}

func (i *countingIndex) Search(_ context.Context, _ string, k int) ([]domain.RetrievalResult, error) {
	i.searches++
	i.lastK = k
	if i.err != nil {
		return nil, i.err
	}
	if k < len(i.results) {
		return i.results[:k], nil
	}
	return i.results, nil
}

func (i *countingIndex) IsEmpty() bool      { return len(i.results) == 0 }
func (i *countingIndex) Generation() uint64 { return i.generation }

type stubRetriever struct {
	err error
}

func (r stubRetriever) Retrieve(context.Context, string, int) ([]domain.RetrievalResult, error) {
	return nil, r.err
}

func (stubRetriever) IsEmpty() bool { return false }

type failingIndexer struct{ err error }

func (f failingIndexer) Add(context.Context, []string, []map[string]string) error { return f.err }

type pipeline struct {
	index    *vectorindex.Index
	ingest   *IngestUseCase
	retrieve *RetrieveUseCase
}

func newPipeline(t *testing.T, language string) pipeline {
	t.Helper()

	normalizer, err := analyzer.NewNormalizer(language)
	require.NoError(t, err)
	splitter, err := chunker.NewRecursiveSplitter(1000, 200)
	require.NoError(t, err)

	index, err := vectorindex.New(memstore.NewMemoryStore(), embedding.NewHashEmbedder(512), normalizer,
		vectorindex.Options{Metric: vectorindex.MetricCosine, Language: language, Logger: quietLogger})
	require.NoError(t, err)

	return pipeline{
		index:    index,
		ingest:   NewIngestUseCase(extract.New(), splitter, index, quietLogger),
		retrieve: NewRetrieveUseCase(index, cache.NewQueryCache(16, time.Minute), 5, 0, quietLogger),
	}
}

func TestAnswer_EmptyIndexReturnsSentinel(t *testing.T) {
	tests := []struct {
		language string
		expected string
	}{
		{"english", "Sorry, there are no documents to answer your question."},
		{"portuguese", "Desculpe, não há documentos para responder à sua pergunta."},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			p := newPipeline(t, tt.language)
			llm := &fakeLLM{text: "should not be used"}
			answerUC := NewAnswerUseCase(p.retrieve, llm, 5, tt.language, quietLogger)

			answer, err := answerUC.Answer(context.Background(), "What is this about?")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, answer.Answer)
			assert.Equal(t, "What is this about?", answer.Question)
			assert.NotNil(t, answer.Sources)
			assert.Empty(t, answer.Sources)
			assert.Nil(t, answer.Usage)
			assert.Zero(t, llm.calls())
		})
	}
}

func TestAnswer_BecomesReadyAfterFirstAdd(t *testing.T) {
	p := newPipeline(t, "english")
	llm := &fakeLLM{text: "On the mat.", usage: &domain.Usage{PromptTokens: 42, CompletionTokens: 4}}
	answerUC := NewAnswerUseCase(p.retrieve, llm, 1, "english", quietLogger)
	ctx := context.Background()

	before, err := answerUC.Answer(ctx, "Where did the cat sit?")
	require.NoError(t, err)
	assert.Equal(t, answerUC.NoDocumentsAnswer(), before.Answer)

	_, err = p.ingest.IngestText(ctx, "The cat sat on the mat", "a.txt")
	require.NoError(t, err)
	_, err = p.ingest.IngestText(ctx, "Dogs bark loudly at night", "b.txt")
	require.NoError(t, err)

	answer, err := answerUC.Answer(ctx, "Where did the cat sit?")
	require.NoError(t, err)
	assert.Equal(t, "On the mat.", answer.Answer)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "a.txt", answer.Sources[0].Title)
	assert.Equal(t, "The cat sat on the mat", answer.Sources[0].Content)
	assert.Equal(t, map[string]string{"source": "a.txt"}, answer.Sources[0].Metadata)
	assert.Equal(t, &domain.Usage{PromptTokens: 42, CompletionTokens: 4}, answer.Usage)

	require.Equal(t, 1, llm.calls())
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "The cat sat on the mat")
	assert.Contains(t, prompt, "Question: Where did the cat sit?")
	assert.NotContains(t, prompt, "Dogs bark")
}

func TestAnswer_SourcesFollowRetrievalOrder(t *testing.T) {
	p := newPipeline(t, "english")
	ctx := context.Background()

	err := p.index.Add(ctx,
		[]string{"Dogs bark loudly at night", "The cat sat on the mat", "A cat and a dog"},
		[]map[string]string{{"source": "b.txt"}, {"source": "a.txt", "page": "1"}, {}})
	require.NoError(t, err)

	results, err := p.retrieve.Retrieve(ctx, "cat mat", 3)
	require.NoError(t, err)

	llm := &fakeLLM{text: "answer"}
	answer, err := NewAnswerUseCase(p.retrieve, llm, 3, "english", quietLogger).Answer(ctx, "cat mat")
	require.NoError(t, err)
	require.Len(t, answer.Sources, len(results))

	for i, r := range results {
		assert.Equal(t, r.Segment.RawContent, answer.Sources[i].Content)
	}
	assert.Equal(t, "a.txt", answer.Sources[0].Title)
	assert.Equal(t, "1", answer.Sources[0].Metadata["page"])
	assert.Contains(t, []string{answer.Sources[1].Title, answer.Sources[2].Title}, UnknownSource)
}

func TestAnswer_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("blank question", func(t *testing.T) {
		p := newPipeline(t, "english")
		_, err := NewAnswerUseCase(p.retrieve, &fakeLLM{}, 5, "english", quietLogger).Answer(ctx, "  ")
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("language model failure", func(t *testing.T) {
		p := newPipeline(t, "english")
		_, err := p.ingest.IngestText(ctx, "The cat sat on the mat", "a.txt")
		require.NoError(t, err)

		llm := &fakeLLM{err: errors.New("503 service unavailable")}
		_, err = NewAnswerUseCase(p.retrieve, llm, 5, "english", quietLogger).Answer(ctx, "cat?")
		require.Error(t, err)
		assert.True(t, errs.IsGeneration(err))
		assert.True(t, errs.IsProvider(err))
	})

	t.Run("empty completion", func(t *testing.T) {
		p := newPipeline(t, "english")
		_, err := p.ingest.IngestText(ctx, "The cat sat on the mat", "a.txt")
		require.NoError(t, err)

		_, err = NewAnswerUseCase(p.retrieve, &fakeLLM{text: " \n"}, 5, "english", quietLogger).Answer(ctx, "cat?")
		assert.True(t, errs.HasCode(err, errs.CodeGenerationEmpty))
	})

	t.Run("retrieval failure", func(t *testing.T) {
		llm := &fakeLLM{text: "unused"}
		answerUC := NewAnswerUseCase(stubRetriever{err: errors.New("connection refused")}, llm, 5, "english", quietLogger)

		_, err := answerUC.Answer(ctx, "cat?")
		require.Error(t, err)
		assert.True(t, errs.IsRetrieval(err))
		assert.Zero(t, llm.calls())
	})

	t.Run("query embedding failure is a provider error", func(t *testing.T) {
		upstream := errs.Wrap(errors.New("timeout"), errs.CodeRetrievalEmbeddingUpstream, "embedding query")
		retrieveUC := NewRetrieveUseCase(&countingIndex{
			results: []domain.RetrievalResult{{Segment: domain.Segment{RawContent: "x"}}},
			err:     upstream,
		}, nil, 5, 0, quietLogger)

		_, err := NewAnswerUseCase(retrieveUC, &fakeLLM{text: "unused"}, 5, "english", quietLogger).Answer(ctx, "cat?")
		require.Error(t, err)
		assert.True(t, errs.IsRetrieval(err))
		assert.True(t, errs.IsProvider(err))
	})
}

func TestRetrieve_DefaultsAndValidation(t *testing.T) {
	results := make([]domain.RetrievalResult, 8)
	for i := range results {
		results[i] = domain.RetrievalResult{Score: 1 - float64(i)/10}
	}
	index := &countingIndex{results: results}
	retrieveUC := NewRetrieveUseCase(index, nil, 3, 0, quietLogger)
	ctx := context.Background()

	got, err := retrieveUC.Retrieve(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = retrieveUC.Retrieve(ctx, "anything", 6)
	require.NoError(t, err)
	assert.Len(t, got, 6)

	_, err = retrieveUC.Retrieve(ctx, "\t", 2)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, 2, index.searches)

	assert.Equal(t, DefaultTopK, NewRetrieveUseCase(index, nil, 0, 0, nil).defaultK)
}

func TestRetrieve_MinScore(t *testing.T) {
	index := &countingIndex{results: []domain.RetrievalResult{{Score: 0.9}, {Score: 0.5}, {Score: 0.1}}}
	retrieveUC := NewRetrieveUseCase(index, nil, 5, 0.4, quietLogger)

	got, err := retrieveUC.Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.9, got[0].Score)
	assert.Equal(t, 0.5, got[1].Score)
}

func TestRetrieve_CacheFollowsGeneration(t *testing.T) {
	index := &countingIndex{results: []domain.RetrievalResult{{Segment: domain.Segment{ID: "s1"}, Score: 1}}}
	retrieveUC := NewRetrieveUseCase(index, cache.NewQueryCache(8, time.Minute), 5, 0, quietLogger)
	ctx := context.Background()

	_, err := retrieveUC.Retrieve(ctx, "q", 1)
	require.NoError(t, err)
	_, err = retrieveUC.Retrieve(ctx, "q", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, index.searches)

	index.generation++
	_, err = retrieveUC.Retrieve(ctx, "q", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, index.searches)
}

func TestRetrieve_RerankerDropsNearDuplicates(t *testing.T) {
	result := func(content string, score float64) domain.RetrievalResult {
		return domain.RetrievalResult{Segment: domain.Segment{ID: content, Content: content}, Score: score}
	}
	index := &countingIndex{results: []domain.RetrievalResult{
		result("cat sat mat", 0.9),
		result("cat sat mat", 0.85),
		result("dog park", 0.5),
		result("bird", 0.4),
	}}
	retrieveUC := NewRetrieveUseCase(index, nil, 5, 0, quietLogger).
		WithReranker(rerank.NewMMRReranker(0.5, 0.8, false))

	got, err := retrieveUC.Retrieve(context.Background(), "cat", 2)
	require.NoError(t, err)
	assert.Equal(t, 4, index.lastK)
	require.Len(t, got, 2)
	assert.Equal(t, 0.9, got[0].Score)
	assert.Equal(t, "dog park", got[1].Segment.Content)
}

func TestRetrieve_WrapsSearchErrors(t *testing.T) {
	index := &countingIndex{err: errors.New("boom")}
	_, err := NewRetrieveUseCase(index, nil, 5, 0, quietLogger).Retrieve(context.Background(), "q", 1)
	assert.True(t, errs.HasCode(err, errs.CodeRetrievalFailure))
}

func TestRetrieve_SeesNewSegmentsThroughCache(t *testing.T) {
	p := newPipeline(t, "english")
	ctx := context.Background()

	_, err := p.ingest.IngestText(ctx, "Dogs bark loudly at night", "b.txt")
	require.NoError(t, err)
	first, err := p.retrieve.Retrieve(ctx, "Where did the cat sit?", 5)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = p.ingest.IngestText(ctx, "The cat sat on the mat", "a.txt")
	require.NoError(t, err)
	second, err := p.retrieve.Retrieve(ctx, "Where did the cat sit?", 5)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "a.txt", second[0].Segment.Source())
}

func TestIngest_ReportsBadFilesAndKeepsGoing(t *testing.T) {
	p := newPipeline(t, "english")

	files := []domain.File{
		{Name: "a.txt", Data: []byte("The cat sat on the mat")},
		{Name: "scan.pdf", Data: []byte("%PDF-1.4")},
		{Name: "empty.md", Data: []byte("   \n")},
		{Name: "people.csv", Data: []byte("name,pet\nAlice,cat\n")},
	}

	result, err := p.ingest.Ingest(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesProcessed)
	assert.Equal(t, 2, result.SegmentsAdded)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "scan.pdf", result.Errors[0].File)
	assert.Equal(t, "empty.md", result.Errors[1].File)
	assert.Equal(t, 2, p.index.Count())

	results, err := p.retrieve.Retrieve(context.Background(), "Alice", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "people.csv", results[0].Segment.Source())
	assert.Equal(t, "name: Alice\npet: cat", results[0].Segment.RawContent)
}

func TestIngest_SegmentsLongDocuments(t *testing.T) {
	normalizer, err := analyzer.NewNormalizer("english")
	require.NoError(t, err)
	splitter, err := chunker.NewRecursiveSplitter(40, 10)
	require.NoError(t, err)
	index, err := vectorindex.New(memstore.NewMemoryStore(), embedding.NewHashEmbedder(64), normalizer,
		vectorindex.Options{Logger: quietLogger})
	require.NoError(t, err)
	ingestUC := NewIngestUseCase(extract.New(), splitter, index, quietLogger)

	text := "Cats sleep most of the day.\n\nDogs prefer long walks in the park.\n\nBirds sing early in the morning."
	added, err := ingestUC.IngestText(context.Background(), text, "")
	require.NoError(t, err)
	assert.Greater(t, added, 1)
	assert.Equal(t, added, index.Count())

	results, err := index.Search(context.Background(), "birds morning", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, UnknownSource, results[0].Segment.Source())
}

func TestIngest_Errors(t *testing.T) {
	ctx := context.Background()
	splitter, err := chunker.NewRecursiveSplitter(100, 0)
	require.NoError(t, err)

	t.Run("empty text", func(t *testing.T) {
		ingestUC := NewIngestUseCase(extract.New(), splitter, failingIndexer{}, quietLogger)
		_, err := ingestUC.IngestText(ctx, " ", "a.txt")
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("index failure fails the batch", func(t *testing.T) {
		addErr := errs.New(errs.CodeIndexDimensionMismatch, "dimension mismatch")
		ingestUC := NewIngestUseCase(extract.New(), splitter, failingIndexer{err: addErr}, quietLogger)

		_, err := ingestUC.Ingest(ctx, []domain.File{{Name: "a.txt", Data: []byte("hello")}})
		assert.True(t, errs.IsDimensionMismatch(err))

		_, err = ingestUC.IngestText(ctx, "hello", "a.txt")
		assert.True(t, errs.IsDimensionMismatch(err))
	})

	t.Run("nothing to add skips the index", func(t *testing.T) {
		ingestUC := NewIngestUseCase(extract.New(), splitter, failingIndexer{err: errors.New("unreachable")}, quietLogger)
		result, err := ingestUC.Ingest(ctx, []domain.File{{Name: "a.exe", Data: []byte{0}}})
		require.NoError(t, err)
		assert.Zero(t, result.SegmentsAdded)
		assert.Len(t, result.Errors, 1)
	})
}

func TestIngestDir(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write("notes/cats.md", "# Cats\n\nThe cat sat on the mat")
	write("dogs.txt", "Dogs bark loudly at night")
	write("node_modules/lib.txt", "ignored")
	write("image.png", "not text")

	p := newPipeline(t, "english")
	walker := fs.NewWalker([]string{"**/*.txt", "**/*.md"}, []string{"**/node_modules/**"})

	var seen []string
	result, err := p.ingest.IngestDir(context.Background(), root, walker, func(processed, total int, file string) {
		assert.Equal(t, 2, total)
		assert.Equal(t, len(seen)+1, processed)
		seen = append(seen, file)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"dogs.txt", "notes/cats.md"}, seen)
	assert.Equal(t, 2, result.FilesProcessed)
	assert.Equal(t, 2, result.SegmentsAdded)
	assert.Empty(t, result.Errors)

	results, err := p.retrieve.Retrieve(context.Background(), "Where did the cat sit?", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "notes/cats.md", results[0].Segment.Source())
}

func TestHits(t *testing.T) {
	hits := Hits([]domain.RetrievalResult{{
		Segment: domain.Segment{RawContent: "raw", Content: "norm", Metadata: map[string]string{"source": "a.txt"}},
		Score:   0.75,
	}})
	require.Len(t, hits, 1)
	assert.Equal(t, RetrievalHit{Source: "a.txt", Score: 0.75, Text: "raw", Metadata: map[string]string{"source": "a.txt"}}, hits[0])
}
