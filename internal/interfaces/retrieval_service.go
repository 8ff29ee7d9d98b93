package interfaces

import (
	"context"

	"github.com/ternarybob/reperio/internal/models"
)

// QueryAnalyzer turns a raw query into a structured analysis. When the
// oracle is unavailable the analyzer must still return a usable
// deterministic analysis rather than an error.
type QueryAnalyzer interface {
	Analyze(ctx context.Context, query string) (*models.QueryAnalysis, error)
}

// StrategySelector picks the retrieval algorithm for an analyzed query.
// Selection failures degrade to the simple strategy, never to an error.
type StrategySelector interface {
	Select(ctx context.Context, analysis *models.QueryAnalysis) (*models.RetrievalStrategy, error)
}

// ConfidenceEstimator scores how well a set of retrieved contexts (and
// the answer synthesized from them, when one exists) serves the analyzed
// query, in [0, 1]. oracleConfidence is the answer synthesizer's own
// estimate and may be zero when no synthesis happened.
type ConfidenceEstimator interface {
	Estimate(ctx context.Context, analysis *models.QueryAnalysis, answer string, oracleConfidence float64, contexts []*models.EnhancedContext) float64
}

// RetrievalService runs the full adaptive pipeline: analyze, select a
// strategy, execute it, and rank the results.
type RetrievalService interface {
	// Retrieve executes the pipeline for a query. A non-empty scope
	// restricts search to those documents; a zero maxResults uses the
	// configured default.
	Retrieve(ctx context.Context, query string, scope []string, maxResults int) (*models.RetrievalResult, error)

	// RetrieveWithStrategy bypasses selection and runs the given strategy.
	RetrieveWithStrategy(ctx context.Context, query string, strategy *models.RetrievalStrategy, scope []string, maxResults int) (*models.RetrievalResult, error)
}
