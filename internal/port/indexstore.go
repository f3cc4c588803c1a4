package port

import "ragqa/internal/domain"

// IndexSnapshot is the full persisted state of a vector index.
type IndexSnapshot struct {
	Dimension int
	Metric    string
	Model     string
	Language  string
	Segments  []domain.Segment // insertion order, embeddings included
}

// IndexStore persists and reloads index snapshots.
type IndexStore interface {
	// Save replaces the persisted snapshot. It must be all-or-nothing.
	Save(snap IndexSnapshot) error

	// Load returns the persisted snapshot. ok is false when nothing was persisted yet.
	Load() (snap IndexSnapshot, ok bool, err error)
}
