package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// Engine orchestrates the adaptive retrieval pipeline: analyze the
// query, select a strategy, execute it, and rank the results. Each
// invocation is a stateless pipeline over the shared vector store.
type Engine struct {
	analyzer   interfaces.QueryAnalyzer
	selector   interfaces.StrategySelector
	search     interfaces.SearchEngine
	embeddings interfaces.EmbeddingService
	store      interfaces.VectorStorage
	graph      interfaces.GraphStorage
	llm        interfaces.LLMService
	config     *common.RetrievalConfig
	logger     arbor.ILogger
}

// NewEngine creates the retrieval engine. The graph store may be nil;
// the knowledge graph strategy then degrades to a simple search.
func NewEngine(
	analyzer interfaces.QueryAnalyzer,
	selector interfaces.StrategySelector,
	search interfaces.SearchEngine,
	embeddings interfaces.EmbeddingService,
	store interfaces.VectorStorage,
	graph interfaces.GraphStorage,
	llm interfaces.LLMService,
	config *common.RetrievalConfig,
	logger arbor.ILogger,
) interfaces.RetrievalService {
	return &Engine{
		analyzer:   analyzer,
		selector:   selector,
		search:     search,
		embeddings: embeddings,
		store:      store,
		graph:      graph,
		llm:        llm,
		config:     config,
		logger:     logger,
	}
}

// Retrieve executes the full pipeline for a query
func (e *Engine) Retrieve(ctx context.Context, query string, scope []string, maxResults int) (*models.RetrievalResult, error) {
	startTime := time.Now()

	analysis, err := e.analyzer.Analyze(ctx, query)
	if err != nil {
		return nil, err
	}

	// Cancellation checkpoint between pipeline stages
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strategy, err := e.selector.Select(ctx, analysis)
	if err != nil {
		strategy = models.FallbackStrategy()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.execute(ctx, analysis, strategy, scope, maxResults, startTime)
}

// RetrieveWithStrategy bypasses strategy selection and runs the given
// strategy directly
func (e *Engine) RetrieveWithStrategy(ctx context.Context, query string, strategy *models.RetrievalStrategy, scope []string, maxResults int) (*models.RetrievalResult, error) {
	startTime := time.Now()

	analysis, err := e.analyzer.Analyze(ctx, query)
	if err != nil {
		return nil, err
	}

	if strategy == nil || !models.ValidStrategyKind(strategy.Kind) {
		strategy = models.FallbackStrategy()
	}

	return e.execute(ctx, analysis, strategy, scope, maxResults, startTime)
}

func (e *Engine) maxResults(requested int) int {
	if requested > 0 {
		return requested
	}
	return e.config.MaxResults
}

// execute dispatches to the strategy implementation. A failing
// specialized strategy degrades to a simple search before giving up.
func (e *Engine) execute(ctx context.Context, analysis *models.QueryAnalysis, strategy *models.RetrievalStrategy, scope []string, requested int, startTime time.Time) (*models.RetrievalResult, error) {
	limit := e.maxResults(requested)

	var contexts []*models.EnhancedContext
	var err error

	switch strategy.Kind {
	case models.StrategyMultiStage:
		contexts, err = e.executeMultiStage(ctx, analysis, scope, limit, e.stages(strategy))
	case models.StrategyKnowledgeGraph:
		contexts, err = e.executeKnowledgeGraph(ctx, analysis, scope, limit, e.graphDepth(strategy))
	case models.StrategyMultimodal:
		contexts, err = e.executeMultimodal(ctx, analysis, scope, limit)
	case models.StrategyExpertDomain:
		// Expert domain reuses multi-stage with a deeper round count
		contexts, err = e.executeMultiStage(ctx, analysis, scope, limit, expertDomainStages)
	default:
		contexts, err = e.executeSimple(ctx, analysis, scope, limit)
	}

	if err != nil && strategy.Kind != models.StrategySimple {
		e.logger.Warn().
			Err(err).
			Str("strategy", string(strategy.Kind)).
			Msg("Strategy execution failed, degrading to simple search")
		contexts, err = e.executeSimple(ctx, analysis, scope, limit)
	}
	if err != nil {
		return nil, err
	}

	totalFound := len(contexts)
	if len(contexts) > limit {
		contexts = contexts[:limit]
	}
	if contexts == nil {
		contexts = []*models.EnhancedContext{}
	}

	result := &models.RetrievalResult{
		Contexts:     contexts,
		Strategy:     strategy,
		TotalFound:   totalFound,
		SearchTimeMs: time.Since(startTime).Milliseconds(),
	}

	e.logger.Info().
		Str("strategy", string(strategy.Kind)).
		Int("contexts", len(contexts)).
		Int("total_found", totalFound).
		Int64("duration_ms", result.SearchTimeMs).
		Msg("Retrieval completed")

	return result, nil
}

func (e *Engine) stages(strategy *models.RetrievalStrategy) int {
	if strategy.Parameters.Stages > 0 {
		return strategy.Parameters.Stages
	}
	return e.config.MultiStageRounds
}

func (e *Engine) graphDepth(strategy *models.RetrievalStrategy) int {
	if strategy.Parameters.GraphDepth > 0 {
		return strategy.Parameters.GraphDepth
	}
	return e.config.GraphDepth
}

// executeSimple is one hybrid search pass over the scope
func (e *Engine) executeSimple(ctx context.Context, analysis *models.QueryAnalysis, scope []string, limit int) ([]*models.EnhancedContext, error) {
	scored, err := e.hybridSearch(ctx, analysis, analysis.ExpandedQuery, scope, limit)
	if err != nil {
		return nil, err
	}
	return e.enrichContexts(ctx, scored), nil
}

// hybridSearch embeds a query string and runs the hybrid engine with the
// analysis-derived options
func (e *Engine) hybridSearch(ctx context.Context, analysis *models.QueryAnalysis, query string, scope []string, limit int) ([]models.ScoredChunk, error) {
	embedding, err := e.embeddings.GenerateQueryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	return e.search.HybridSearch(ctx, query, embedding, interfaces.SearchOptions{
		Limit:       limit,
		DocumentIDs: scope,
		Keywords:    analysis.Keywords,
		Entities:    analysis.Entities,
		Intent:      analysis.Intent,
	})
}

// enrichContexts wraps scored chunks with trust metadata. Document
// upload dates seed recency; sidecar lookups are cached per document.
func (e *Engine) enrichContexts(ctx context.Context, scored []models.ScoredChunk) []*models.EnhancedContext {
	uploadDates := make(map[string]time.Time)

	contexts := make([]*models.EnhancedContext, 0, len(scored))
	for _, sc := range scored {
		docID := sc.Chunk.Metadata.DocumentID

		uploaded, ok := uploadDates[docID]
		if !ok && docID != "" {
			if meta, err := e.store.GetDocumentMeta(ctx, docID); err == nil && meta != nil {
				uploaded = meta.UploadDate
			}
			uploadDates[docID] = uploaded
		}

		contexts = append(contexts, models.NewEnhancedContext(sc.Chunk, sc.Score, uploaded))
	}
	return contexts
}

// dedupAccumulate appends candidates that are not near-duplicates of
// anything already accumulated, using word-level Jaccard similarity
// against the configured threshold.
func (e *Engine) dedupAccumulate(accumulated []*models.EnhancedContext, candidates []*models.EnhancedContext) []*models.EnhancedContext {
	for _, candidate := range candidates {
		duplicate := false
		for _, existing := range accumulated {
			if wordJaccard(candidate.Chunk.Content, existing.Chunk.Content) >= e.config.DedupThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			accumulated = append(accumulated, candidate)
		}
	}
	return accumulated
}

func meanScore(contexts []*models.EnhancedContext) float64 {
	if len(contexts) == 0 {
		return 0
	}
	var sum float64
	for _, c := range contexts {
		sum += c.Score
	}
	return sum / float64(len(contexts))
}

// wordJaccard computes case-insensitive word-level Jaccard similarity
func wordJaccard(a, b string) float64 {
	setA := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(a)) {
		setA[w] = true
	}
	setB := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(b)) {
		setB[w] = true
	}

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
	return float64(intersection) / float64(len(setA)+len(setB)-intersection)
}
