// Package rerank diversifies retrieval results.
package rerank

import (
	"strings"

	"ragqa/internal/domain"
)

// MMRReranker implements Maximal Marginal Relevance over the normalized
// segment text, so overlapping neighbours of the same passage do not crowd
// out other passages.
type MMRReranker struct {
	lambda        float64
	dedupJaccard  float64
	lowerIsBetter bool
}

// NewMMRReranker creates a new MMR reranker. lowerIsBetter must be set when
// scores are distances.
func NewMMRReranker(lambda, dedupJaccard float64, lowerIsBetter bool) *MMRReranker {
	return &MMRReranker{
		lambda:        lambda,
		dedupJaccard:  dedupJaccard,
		lowerIsBetter: lowerIsBetter,
	}
}

// Rerank picks up to k candidates.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
func (r *MMRReranker) Rerank(candidates []domain.RetrievalResult, k int) []domain.RetrievalResult {
	if len(candidates) == 0 {
		return []domain.RetrievalResult{}
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := r.relevance(candidates)
	tokens := make([][]string, len(candidates))
	for i, c := range candidates {
		tokens[i] = strings.Fields(c.Segment.Content)
	}

	selected := make([]int, 0, k)
	used := make([]bool, len(candidates))

	for len(selected) < k {
		bestIdx := -1
		bestMMR := -1e9

		for i := range candidates {
			if used[i] {
				continue
			}

			maxSim := 0.0
			for _, j := range selected {
				if sim := jaccardSimilarity(tokens[i], tokens[j]); sim > maxSim {
					maxSim = sim
				}
			}
			if len(selected) > 0 && maxSim > r.dedupJaccard {
				continue
			}

			mmr := r.lambda*relevance[i] - (1-r.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			// Everything left duplicates a selected passage.
			break
		}
		selected = append(selected, bestIdx)
		used[bestIdx] = true
	}

	results := make([]domain.RetrievalResult, len(selected))
	for i, idx := range selected {
		results[i] = candidates[idx]
	}
	return results
}

// relevance scales scores to [0, 1], 1 being the best candidate.
func (r *MMRReranker) relevance(candidates []domain.RetrievalResult) []float64 {
	lo, hi := candidates[0].Score, candidates[0].Score
	for _, c := range candidates {
		lo = min(lo, c.Score)
		hi = max(hi, c.Score)
	}

	rel := make([]float64, len(candidates))
	for i, c := range candidates {
		switch {
		case hi == lo:
			rel[i] = 1
		case r.lowerIsBetter:
			rel[i] = (hi - c.Score) / (hi - lo)
		default:
			rel[i] = (c.Score - lo) / (hi - lo)
		}
	}
	return rel
}

// jaccardSimilarity computes the Jaccard similarity between two token sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}

	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, exists := setB[t]; exists {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}
