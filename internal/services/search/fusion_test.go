package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/models"
)

func scored(id, content string, score float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.DocumentChunk{ID: id, Content: content},
		Score: score,
	}
}

func TestFuseResultsRRFForSharedChunks(t *testing.T) {
	dense := []models.ScoredChunk{
		scored("a", "alpha", 0.95),
		scored("b", "beta", 0.90),
	}
	sparse := []models.ScoredChunk{
		scored("b", "beta", 12.0),
		scored("c", "gamma", 3.0),
	}

	fused := fuseResults(dense, sparse, models.IntentQuestion, 60)
	byID := make(map[string]float64)
	for _, sc := range fused {
		byID[sc.Chunk.ID] = sc.Score
	}

	// b is in both lists: dense rank 2, sparse rank 1. Its fused score is
	// exactly the RRF sum regardless of the raw scores.
	want := 1.0/(60+2) + 1.0/(60+1)
	assert.InDelta(t, want, byID["b"], 1e-12)

	// Single-list results keep their weighted source score
	assert.InDelta(t, 0.95*0.6, byID["a"], 1e-12)
	assert.InDelta(t, 3.0*0.4, byID["c"], 1e-12)
}

func TestFuseResultsDefinitionWeights(t *testing.T) {
	dense := []models.ScoredChunk{scored("a", "alpha", 0.5)}
	sparse := []models.ScoredChunk{scored("b", "beta", 0.5)}

	fused := fuseResults(dense, sparse, models.IntentDefinition, 60)
	byID := make(map[string]float64)
	for _, sc := range fused {
		byID[sc.Chunk.ID] = sc.Score
	}

	assert.InDelta(t, 0.5*0.7, byID["a"], 1e-12)
	assert.InDelta(t, 0.5*0.3, byID["b"], 1e-12)
}

func TestFuseResultsSortedDescending(t *testing.T) {
	dense := []models.ScoredChunk{
		scored("a", "alpha", 0.2),
		scored("b", "beta", 0.1),
	}
	sparse := []models.ScoredChunk{
		scored("c", "gamma", 5.0),
	}

	fused := fuseResults(dense, sparse, models.IntentQuestion, 60)
	require.Len(t, fused, 3)
	for i := 1; i < len(fused); i++ {
		assert.GreaterOrEqual(t, fused[i-1].Score, fused[i].Score)
	}
}

func TestSparseScoreWholeWordMatching(t *testing.T) {
	tokens, isKeyword := buildTokenSet("database indexing", nil, nil)

	match := sparseScore("the database uses indexing", tokens, isKeyword)
	assert.Greater(t, match, 0.0)

	noMatch := sparseScore("nothing relevant here", tokens, isKeyword)
	assert.Equal(t, 0.0, noMatch)
}

func TestSparseScoreKeywordWeighting(t *testing.T) {
	content := "indexing improves query speed"

	tokensPlain, kwPlain := buildTokenSet("indexing", nil, nil)
	tokensWeighted, kwWeighted := buildTokenSet("", []string{"indexing"}, nil)

	plain := sparseScore(content, tokensPlain, kwPlain)
	weighted := sparseScore(content, tokensWeighted, kwWeighted)

	// Keyword tokens count double
	assert.InDelta(t, plain*2, weighted, 1e-9)
}

func TestBuildTokenSetDropsShortTokens(t *testing.T) {
	tokens, _ := buildTokenSet("is a db of data", nil, nil)
	assert.NotContains(t, tokens, "is")
	assert.NotContains(t, tokens, "a")
	assert.NotContains(t, tokens, "db")
	assert.Contains(t, tokens, "data")
}

func TestSparseSearchEscapesRegexMetacharacters(t *testing.T) {
	chunks := []models.DocumentChunk{
		{ID: "c1", Content: "call foo() to start"},
	}
	// Tokens containing regex metacharacters must not panic or misfire
	results := sparseSearch(chunks, "foo() start", nil, nil)
	assert.NotEmpty(t, results)
}
