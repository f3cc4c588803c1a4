package rerank

import (
	"testing"

	"ragqa/internal/domain"
)

func result(id, content string, score float64) domain.RetrievalResult {
	return domain.RetrievalResult{Segment: domain.Segment{ID: id, Content: content}, Score: score}
}

func ids(results []domain.RetrievalResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Segment.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMMRReranking(t *testing.T) {
	reranker := NewMMRReranker(0.5, 0.9, false)

	candidates := []domain.RetrievalResult{
		result("c1", "auth login user password", 1.0),
		result("c2", "auth login user session", 0.9),
		result("c3", "database query sql connection", 0.8),
		result("c4", "auth jwt token oauth", 0.7),
	}

	got := ids(reranker.Rerank(candidates, 3))
	want := []string{"c1", "c3", "c2"}
	if !equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMMRDeduplication(t *testing.T) {
	reranker := NewMMRReranker(0.7, 0.8, false)

	candidates := []domain.RetrievalResult{
		result("c1", "cat sat mat", 0.9),
		result("c2", "cat sat mat", 0.85),
		result("c3", "dogs bark loudly", 0.2),
	}

	got := ids(reranker.Rerank(candidates, 3))
	want := []string{"c1", "c3"}
	if !equal(got, want) {
		t.Errorf("expected duplicate to be dropped, got %v", got)
	}
}

func TestMMRDistances(t *testing.T) {
	reranker := NewMMRReranker(1.0, 1.0, true)

	candidates := []domain.RetrievalResult{
		result("far", "a", 0.9),
		result("near", "b", 0.1),
		result("mid", "c", 0.5),
	}

	got := ids(reranker.Rerank(candidates, 3))
	want := []string{"near", "mid", "far"}
	if !equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMMREdgeCases(t *testing.T) {
	reranker := NewMMRReranker(0.7, 0.8, false)

	if got := reranker.Rerank(nil, 5); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}

	single := []domain.RetrievalResult{result("only", "", 0.3)}
	if got := ids(reranker.Rerank(single, 5)); !equal(got, []string{"only"}) {
		t.Errorf("expected the single candidate, got %v", got)
	}
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		a, b     []string
		expected float64
	}{
		{[]string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{[]string{"a", "b"}, []string{"c", "d"}, 0.0},
		{[]string{"a", "b", "c"}, []string{"b", "c", "d"}, 0.5},
		{nil, nil, 1.0},
		{[]string{"a"}, nil, 0.0},
	}

	for _, tt := range tests {
		if got := jaccardSimilarity(tt.a, tt.b); got != tt.expected {
			t.Errorf("jaccard(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.expected)
		}
	}
}
