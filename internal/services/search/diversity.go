package search

import (
	"strings"

	"github.com/ternarybob/reperio/internal/models"
)

// WordJaccard computes word-level Jaccard similarity between two texts.
// Comparison is case-insensitive; two empty texts count as identical.
func WordJaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = true
	}
	return set
}

// diversityFilter drops near-duplicate results. The top result always
// survives; each later candidate is kept only if its word overlap with
// every kept result stays at or below the threshold. Input must be
// sorted best first.
func diversityFilter(results []models.ScoredChunk, threshold float64) []models.ScoredChunk {
	if len(results) <= 1 {
		return results
	}

	kept := []models.ScoredChunk{results[0]}
	for _, candidate := range results[1:] {
		redundant := false
		for _, k := range kept {
			if WordJaccard(candidate.Chunk.Content, k.Chunk.Content) > threshold {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, candidate)
		}
	}
	return kept
}
