package port

import (
	"context"

	"ragqa/internal/domain"
)

// Completion is the free-text output of a language model call.
type Completion struct {
	Text  string
	Usage *domain.Usage
}

// LLM represents a language model for text generation.
type LLM interface {
	// Complete generates text for the prompt, with an optional system prompt.
	Complete(ctx context.Context, systemPrompt, prompt string) (Completion, error)

	// ModelName returns the name of the model.
	ModelName() string
}
