package vectorindex

import (
	"fmt"
	"math"
	"strings"
)

// Metric is the similarity measure an index ranks by.
type Metric string

const (
	// MetricCosine ranks by cosine similarity, higher is closer.
	MetricCosine Metric = "cosine"
	// MetricL2 ranks by Euclidean distance, lower is closer.
	MetricL2 Metric = "l2"
)

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricCosine, MetricL2:
		return m, nil
	case "":
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("unknown metric %q (want cosine or l2)", s)
	}
}

// Score compares two vectors of equal length.
func (m Metric) Score(a, b []float32) float64 {
	if m == MetricL2 {
		return l2Distance(a, b)
	}
	return cosineSimilarity(a, b)
}

// Better reports whether score a ranks ahead of score b.
func (m Metric) Better(a, b float64) bool {
	if m == MetricL2 {
		return a < b
	}
	return a > b
}

// finite reports whether every component of v is a real number.
func finite(v []float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
