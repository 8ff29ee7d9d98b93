package search

import (
	"sort"

	"github.com/ternarybob/reperio/internal/models"
)

// Fusion weights by intent. Definition queries lean harder on dense
// similarity; everything else splits 60/40.
const (
	denseWeightDefault     = 0.6
	sparseWeightDefault    = 0.4
	denseWeightDefinition  = 0.7
	sparseWeightDefinition = 0.3
)

func fusionWeights(intent models.QueryIntent) (dense, sparse float64) {
	if intent == models.IntentDefinition {
		return denseWeightDefinition, sparseWeightDefinition
	}
	return denseWeightDefault, sparseWeightDefault
}

// fuseResults merges dense and sparse rankings. A chunk appearing in
// both lists gets a Reciprocal Rank Fusion score from its 1-based ranks:
//
//	rrf = 1/(k+denseRank) + 1/(k+sparseRank)
//
// which deliberately replaces the blended score. Chunks unique to one
// list keep their weighted single-source score.
func fuseResults(dense, sparse []models.ScoredChunk, intent models.QueryIntent, rrfConstant float64) []models.ScoredChunk {
	denseWeight, sparseWeight := fusionWeights(intent)

	denseRank := make(map[string]int, len(dense))
	for i, sc := range dense {
		denseRank[sc.Chunk.ID] = i + 1
	}
	sparseRank := make(map[string]int, len(sparse))
	for i, sc := range sparse {
		sparseRank[sc.Chunk.ID] = i + 1
	}

	fused := make(map[string]models.ScoredChunk)

	for _, sc := range dense {
		if sr, inBoth := sparseRank[sc.Chunk.ID]; inBoth {
			dr := denseRank[sc.Chunk.ID]
			fused[sc.Chunk.ID] = models.ScoredChunk{
				Chunk: sc.Chunk,
				Score: 1/(rrfConstant+float64(dr)) + 1/(rrfConstant+float64(sr)),
			}
		} else {
			fused[sc.Chunk.ID] = models.ScoredChunk{
				Chunk: sc.Chunk,
				Score: sc.Score * denseWeight,
			}
		}
	}

	for _, sc := range sparse {
		if _, done := fused[sc.Chunk.ID]; done {
			continue
		}
		fused[sc.Chunk.ID] = models.ScoredChunk{
			Chunk: sc.Chunk,
			Score: sc.Score * sparseWeight,
		}
	}

	results := make([]models.ScoredChunk, 0, len(fused))
	for _, sc := range fused {
		results = append(results, sc)
	}
	sortScoredDesc(results)
	return results
}

func sortScoredDesc(results []models.ScoredChunk) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
