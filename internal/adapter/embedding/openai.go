package embedding

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultBatchSize = 100

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	batchSize int
}

// NewOpenAIEmbedder reads the API key from apiKeyEnv. An empty baseURL uses
// the public OpenAI endpoint.
func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string, batchSize int, timeout time.Duration) (*OpenAIEmbedder, error) {
	key := os.Getenv(apiKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	clientCfg := openai.DefaultConfig(key)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	if timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		batchSize: batchSize,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", data.Index)
		}
		v := make([]float32, len(data.Embedding))
		for i := range data.Embedding {
			v[i] = float32(data.Embedding[i])
		}
		vectors[data.Index] = v
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("openai embeddings: missing vector for input %d", i)
		}
	}

	return vectors, nil
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
