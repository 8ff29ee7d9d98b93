package retrieval

import (
	"context"
	"strings"

	"github.com/ternarybob/reperio/internal/models"
)

var (
	visualKeywords     = []string{"image", "chart", "graph", "diagram", "picture", "visual", "plot"}
	structuredKeywords = []string{"table", "data", "statistics", "numbers", "dataset"}
)

// classifyModalities infers the content modalities a query asks about.
// Text is always included.
func classifyModalities(query string) []string {
	q := strings.ToLower(query)
	modalities := []string{"text"}
	if containsAny(q, visualKeywords) {
		modalities = append(modalities, "visual")
	}
	if containsAny(q, structuredKeywords) {
		modalities = append(modalities, "structured")
	}
	return modalities
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// executeMultimodal retrieves per detected modality and merges the
// results by score. Only the text path searches the store today; the
// visual and structured paths report nothing until those document types
// are indexed.
func (e *Engine) executeMultimodal(ctx context.Context, analysis *models.QueryAnalysis, scope []string, limit int) ([]*models.EnhancedContext, error) {
	modalities := classifyModalities(analysis.OriginalQuery)

	var merged []*models.EnhancedContext
	for _, modality := range modalities {
		var contexts []*models.EnhancedContext
		var err error

		switch modality {
		case "visual":
			contexts = e.retrieveVisualContexts(ctx, analysis, scope, limit)
		case "structured":
			contexts = e.retrieveStructuredContexts(ctx, analysis, scope, limit)
		default:
			contexts, err = e.executeSimple(ctx, analysis, scope, limit)
			if err != nil {
				return nil, err
			}
		}
		merged = append(merged, contexts...)
	}

	sortByScore(merged)

	e.logger.Debug().
		Strs("modalities", modalities).
		Int("contexts", len(merged)).
		Msg("Multimodal retrieval completed")

	return merged, nil
}

// retrieveVisualContexts will serve image and figure content once the
// ingestion path stores visual chunks. It reports nothing today.
func (e *Engine) retrieveVisualContexts(ctx context.Context, analysis *models.QueryAnalysis, scope []string, limit int) []*models.EnhancedContext {
	return nil
}

// retrieveStructuredContexts will serve tabular content once the
// ingestion path stores structured chunks. It reports nothing today.
func (e *Engine) retrieveStructuredContexts(ctx context.Context, analysis *models.QueryAnalysis, scope []string, limit int) []*models.EnhancedContext {
	return nil
}
