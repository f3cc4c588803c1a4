package port

import (
	"context"

	"ragqa/internal/domain"
)

// Index is the searchable side of the vector index.
type Index interface {
	Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error)
	IsEmpty() bool

	// Generation changes whenever the searchable contents change.
	Generation() uint64
}

// Retriever returns the top-k segments for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievalResult, error)

	// IsEmpty reports whether there is anything to retrieve from.
	IsEmpty() bool
}

// Segmenter splits raw text into overlapping segments.
type Segmenter interface {
	Split(text string) []string
}

// Normalizer is the text transform applied before embedding.
type Normalizer interface {
	Normalize(text string) string
}

// Extractor turns file bytes into plain text.
type Extractor interface {
	Extract(data []byte, filename string) (string, error)
}
