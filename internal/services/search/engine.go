package search

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// Engine implements hybrid dense+sparse search over the vector store
type Engine struct {
	store  interfaces.VectorStorage
	config *common.SearchConfig
	logger arbor.ILogger
}

// NewEngine creates a search engine over the given vector store
func NewEngine(store interfaces.VectorStorage, config *common.SearchConfig, logger arbor.ILogger) interfaces.SearchEngine {
	return &Engine{
		store:  store,
		config: config,
		logger: logger,
	}
}

func (e *Engine) limit(opts interfaces.SearchOptions) int {
	if opts.Limit > 0 {
		return opts.Limit
	}
	return e.config.DefaultLimit
}

func (e *Engine) minScore(opts interfaces.SearchOptions) float64 {
	if opts.MinScore > 0 {
		return opts.MinScore
	}
	return e.config.MinScore
}

func (e *Engine) diversityThreshold(opts interfaces.SearchOptions) float64 {
	if opts.DiversityThreshold > 0 {
		return opts.DiversityThreshold
	}
	return e.config.DiversityThreshold
}

// DenseSearch ranks chunks by cosine similarity to the query embedding,
// keeping matches above the minimum score.
func (e *Engine) DenseSearch(ctx context.Context, embedding []float32, opts interfaces.SearchOptions) ([]models.ScoredChunk, error) {
	return e.densePass(ctx, embedding, opts, e.limit(opts))
}

// HybridSearch combines dense and keyword rankings with reciprocal rank
// fusion, then filters near-duplicate results and truncates to the limit.
func (e *Engine) HybridSearch(ctx context.Context, query string, embedding []float32, opts interfaces.SearchOptions) ([]models.ScoredChunk, error) {
	startTime := time.Now()
	limit := e.limit(opts)

	// Over-fetch both passes so fusion and the diversity filter have
	// candidates to discard
	candidates := limit * e.config.CandidateFactor

	dense, err := e.densePass(ctx, embedding, opts, candidates)
	if err != nil {
		return nil, err
	}

	chunks, err := e.chunksInScope(ctx, opts)
	if err != nil {
		return nil, err
	}
	sparse := sparseSearch(chunks, query, opts.Keywords, opts.Entities)
	if len(sparse) > candidates {
		sparse = sparse[:candidates]
	}

	fused := fuseResults(dense, sparse, opts.Intent, e.config.RRFConstant)
	diverse := diversityFilter(fused, e.diversityThreshold(opts))

	if len(diverse) > limit {
		diverse = diverse[:limit]
	}

	e.logger.Debug().
		Int("dense", len(dense)).
		Int("sparse", len(sparse)).
		Int("fused", len(fused)).
		Int("returned", len(diverse)).
		Dur("duration", time.Since(startTime)).
		Msg("Hybrid search completed")

	return diverse, nil
}

// densePass runs the similarity scan over the configured scope
func (e *Engine) densePass(ctx context.Context, embedding []float32, opts interfaces.SearchOptions, limit int) ([]models.ScoredChunk, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding cannot be empty")
	}

	minScore := e.minScore(opts)

	if len(opts.DocumentIDs) == 0 {
		return e.store.SearchAll(ctx, embedding, limit, minScore)
	}

	var all []models.ScoredChunk
	for _, id := range opts.DocumentIDs {
		scored, err := e.store.SearchDocument(ctx, id, embedding, limit)
		if err != nil {
			return nil, err
		}
		for _, sc := range scored {
			if sc.Score > minScore {
				all = append(all, sc)
			}
		}
	}

	sortScoredDesc(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// chunksInScope collects the raw chunks the sparse pass will score
func (e *Engine) chunksInScope(ctx context.Context, opts interfaces.SearchOptions) ([]models.DocumentChunk, error) {
	ids := opts.DocumentIDs
	if len(ids) == 0 {
		var err error
		ids, err = e.store.ListDocuments(ctx)
		if err != nil {
			return nil, err
		}
	}

	var chunks []models.DocumentChunk
	for _, id := range ids {
		docChunks, err := e.store.GetDocument(ctx, id)
		if err != nil {
			// Scoped IDs may reference deleted documents; skip them the
			// same way the dense pass does
			continue
		}
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}
