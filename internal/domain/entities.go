package domain

import "time"

// MetadataSource is the metadata key carrying the origin file name or document id.
const MetadataSource = "source"

// Segment is a unit of indexed text.
type Segment struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`     // normalized text the embedding was built from
	RawContent string            `json:"raw_content"` // text as extracted, shown to users
	Metadata   map[string]string `json:"metadata"`
	Embedding  []float32         `json:"-"`
}

// Source returns the segment origin, or "" when unknown.
func (s Segment) Source() string {
	return s.Metadata[MetadataSource]
}

// RetrievalResult pairs a segment with its score under the index metric.
type RetrievalResult struct {
	Segment Segment
	Score   float64
}

// Source is one cited passage of an answer.
type Source struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Usage is token accounting reported by a language model, when available.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Answer is the result of a question against the index.
type Answer struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Usage    *Usage   `json:"usage,omitempty"`
}

// File is a document handed to ingestion.
type File struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// Stats describes the current index.
type Stats struct {
	TotalDocuments int    `json:"total_documents"`
	IsEmpty        bool   `json:"is_empty"`
	Dimension      int    `json:"dimension"`
	Metric         string `json:"metric"`
}
