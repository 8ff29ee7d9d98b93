package interfaces

import (
	"context"

	"github.com/ternarybob/reperio/internal/models"
)

// SearchOptions configures a single search pass
type SearchOptions struct {
	// Limit maximum number of results (defaults applied by the engine)
	Limit int

	// DocumentIDs restricts the search to the given documents when
	// non-empty
	DocumentIDs []string

	// MinScore overrides the minimum dense similarity cutoff when > 0
	MinScore float64

	// DiversityThreshold overrides the configured word-overlap cutoff
	// when > 0
	DiversityThreshold float64

	// Keywords and Entities feed the sparse pass; keywords weigh double
	Keywords []string
	Entities []string

	// Intent shifts the dense/sparse fusion weights
	Intent models.QueryIntent
}

// SearchEngine provides similarity search over the vector store. The
// hybrid path fuses dense and sparse rankings and applies a diversity
// filter; the dense path is a plain cosine scan.
type SearchEngine interface {
	// DenseSearch ranks chunks by cosine similarity to the query
	// embedding.
	DenseSearch(ctx context.Context, embedding []float32, opts SearchOptions) ([]models.ScoredChunk, error)

	// HybridSearch combines dense and keyword rankings with reciprocal
	// rank fusion, then filters near-duplicate results.
	HybridSearch(ctx context.Context, query string, embedding []float32, opts SearchOptions) ([]models.ScoredChunk, error)
}
