package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/models"
)

func TestWordJaccard(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "the quick brown fox", "the quick brown fox", 1.0},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
		{"half overlap", "alpha beta", "alpha gamma", 1.0 / 3.0},
		{"case insensitive", "Alpha Beta", "alpha beta", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "alpha", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WordJaccard(tt.a, tt.b), 1e-9)
		})
	}
}

func TestDiversityFilterDropsNearDuplicates(t *testing.T) {
	// Two near-duplicates (high word overlap) plus one distinct result
	results := []models.ScoredChunk{
		scored("a", "the solar panel generates direct current power output", 0.9),
		scored("b", "the solar panel generates direct current power supply", 0.85),
		scored("c", "annual rainfall statistics for coastal regions", 0.5),
	}

	filtered := diversityFilter(results, 0.7)
	require.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].Chunk.ID)
	assert.Equal(t, "c", filtered[1].Chunk.ID)
}

func TestDiversityFilterKeepsTopResult(t *testing.T) {
	results := []models.ScoredChunk{
		scored("a", "identical text", 0.9),
		scored("b", "identical text", 0.8),
	}

	filtered := diversityFilter(results, 0.7)
	require.Len(t, filtered, 1)
	assert.Equal(t, "a", filtered[0].Chunk.ID)
}

func TestDiversityFilterPairwiseProperty(t *testing.T) {
	results := []models.ScoredChunk{
		scored("a", "one two three four five", 0.9),
		scored("b", "one two three four six", 0.8),
		scored("c", "one two seven eight nine", 0.7),
		scored("d", "completely different words entirely", 0.6),
	}

	threshold := 0.5
	filtered := diversityFilter(results, threshold)

	// No two survivors exceed the threshold
	for i := range filtered {
		for j := i + 1; j < len(filtered); j++ {
			sim := WordJaccard(filtered[i].Chunk.Content, filtered[j].Chunk.Content)
			assert.LessOrEqual(t, sim, threshold)
		}
	}
}

func TestDiversityFilterEmptyAndSingle(t *testing.T) {
	assert.Empty(t, diversityFilter(nil, 0.7))

	single := []models.ScoredChunk{scored("a", "only one", 0.9)}
	assert.Len(t, diversityFilter(single, 0.7), 1)
}
