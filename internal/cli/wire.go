package cli

import (
	"fmt"
	"log/slog"
	"os"

	"ragqa/config"
	"ragqa/internal/adapter/analyzer"
	"ragqa/internal/adapter/cache"
	"ragqa/internal/adapter/chunker"
	"ragqa/internal/adapter/embedding"
	"ragqa/internal/adapter/extract"
	"ragqa/internal/adapter/llm"
	"ragqa/internal/adapter/memstore"
	"ragqa/internal/adapter/rerank"
	"ragqa/internal/adapter/store"
	"ragqa/internal/port"
	"ragqa/internal/usecase"
	"ragqa/internal/vectorindex"
)

// memoryIndexPath keeps the index in process memory only.
const memoryIndexPath = ":memory:"

// app is the object graph every command works against.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	indexPath string
	index     *vectorindex.Index
	ingest    *usecase.IngestUseCase
	retrieve  *usecase.RetrieveUseCase
}

// buildApp wires the index side of the system. The language model is
// built separately so retrieval-only commands work without an LLM key.
func buildApp(cfg *config.Config, dir string, logger *slog.Logger) (*app, error) {
	normalizer, err := analyzer.NewNormalizer(cfg.Index.Language)
	if err != nil {
		return nil, err
	}

	splitter, err := chunker.NewRecursiveSplitter(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var indexStore port.IndexStore
	indexPath := memoryIndexPath
	if cfg.Index.Path == memoryIndexPath {
		indexStore = memstore.NewMemoryStore()
	} else {
		indexPath = cfg.ResolveIndexPath(dir)
		indexStore = store.NewBoltStore(indexPath)
	}

	metric, err := vectorindex.ParseMetric(cfg.Index.Metric)
	if err != nil {
		return nil, err
	}

	index, err := vectorindex.New(indexStore, embedder, normalizer, vectorindex.Options{
		Metric:   metric,
		Language: normalizer.Language(),
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	var queryCache *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		queryCache = cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
	}

	// Scores are distances under l2, so a floor only makes sense for cosine.
	minScore := cfg.Retrieve.MinScore
	if metric != vectorindex.MetricCosine {
		minScore = 0
	}

	retrieveUC := usecase.NewRetrieveUseCase(index, queryCache, cfg.Retrieve.TopK, minScore, logger)
	if cfg.Retrieve.MMRLambda > 0 {
		retrieveUC.WithReranker(rerank.NewMMRReranker(cfg.Retrieve.MMRLambda, cfg.Retrieve.DedupJaccard, metric == vectorindex.MetricL2))
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		indexPath: indexPath,
		index:     index,
		ingest:    usecase.NewIngestUseCase(extract.New(), splitter, index, logger),
		retrieve:  retrieveUC,
	}, nil
}

// answerer builds the answer use case, which needs a language model.
func (a *app) answerer() (*usecase.AnswerUseCase, error) {
	model, err := newLLM(a.cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create language model: %w", err)
	}
	return usecase.NewAnswerUseCase(a.retrieve, model, a.cfg.Retrieve.TopK, a.cfg.Index.Language, a.logger), nil
}

func newEmbedder(ec config.EmbeddingConfig) (port.Embedder, error) {
	switch ec.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL, ec.BatchSize, ec.Timeout)
	case "jina":
		return embedding.NewJinaEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL, ec.BatchSize, ec.Timeout)
	case "ollama":
		return embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL, ec.BatchSize, ec.Timeout), nil
	case "hash":
		return embedding.NewHashEmbedder(ec.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}
}

func newLLM(lc config.LLMConfig) (port.LLM, error) {
	keyEnv := lc.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaultKeyEnv(lc.Provider)
	}
	llmCfg := llm.Config{
		APIKey:      os.Getenv(keyEnv),
		Model:       lc.Model,
		BaseURL:     lc.BaseURL,
		MaxTokens:   lc.MaxTokens,
		Temperature: lc.Temperature,
	}

	switch lc.Provider {
	case "openai":
		return llm.NewOpenAIClient(llmCfg)
	case "anthropic":
		return llm.NewAnthropicClient(llmCfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", lc.Provider)
	}
}

func defaultKeyEnv(provider string) string {
	if provider == "anthropic" {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}
