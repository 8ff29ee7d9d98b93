package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

const (
	// expertDomainStages is the round count for the expert domain
	// strategy, which runs the multi-stage pipeline one round deeper.
	expertDomainStages = 4

	refinementSnippetLength = 100
	refinementTopChunks     = 3
)

const refinementSystemPrompt = `You refine search queries in a document retrieval system.
Given the original query and snippets already retrieved, produce a single improved
search query that targets the aspects the snippets have not yet covered.
Respond with ONLY the refined query text, no explanation.`

// executeMultiStage runs up to the given number of sequential search
// rounds, accumulating deduplicated contexts and refining the query
// between rounds. Cancellation between rounds returns what has been
// gathered so far.
func (e *Engine) executeMultiStage(ctx context.Context, analysis *models.QueryAnalysis, scope []string, limit int, stages int) ([]*models.EnhancedContext, error) {
	if stages < 1 {
		stages = 1
	}

	currentQuery := analysis.ExpandedQuery
	var accumulated []*models.EnhancedContext

	for stage := 0; stage < stages; stage++ {
		if ctx.Err() != nil {
			break
		}

		scored, err := e.hybridSearch(ctx, analysis, currentQuery, scope, limit)
		if err != nil {
			if len(accumulated) > 0 {
				e.logger.Warn().Err(err).Int("stage", stage).Msg("Multi-stage round failed, keeping accumulated results")
				break
			}
			return nil, err
		}

		accumulated = e.dedupAccumulate(accumulated, e.enrichContexts(ctx, scored))

		e.logger.Debug().
			Int("stage", stage).
			Int("accumulated", len(accumulated)).
			Str("query", currentQuery).
			Msg("Multi-stage round completed")

		if len(accumulated) >= e.config.EarlyStopCount && meanScore(accumulated) > e.config.EarlyStopScore {
			break
		}

		if stage < stages-1 {
			currentQuery = e.refineQuery(ctx, analysis.OriginalQuery, accumulated)
		}
	}

	rankContexts(accumulated)
	return accumulated, nil
}

// refineQuery asks the oracle for an improved query built from the
// original query and snippets of the strongest accumulated contexts.
// Any oracle failure falls back to the original query.
func (e *Engine) refineQuery(ctx context.Context, originalQuery string, accumulated []*models.EnhancedContext) string {
	top := make([]*models.EnhancedContext, len(accumulated))
	copy(top, accumulated)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Score > top[j].Score })
	if len(top) > refinementTopChunks {
		top = top[:refinementTopChunks]
	}

	var snippets []string
	for _, c := range top {
		content := c.Chunk.Content
		if len(content) > refinementSnippetLength {
			content = content[:refinementSnippetLength]
		}
		snippets = append(snippets, "- "+content)
	}

	prompt := fmt.Sprintf("Original query: %s\n\nRetrieved so far:\n%s", originalQuery, strings.Join(snippets, "\n"))

	response, err := e.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: refinementSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		e.logger.Warn().Err(err).Msg("Query refinement failed, reusing original query")
		return originalQuery
	}

	refined := strings.TrimSpace(response)
	if refined == "" {
		return originalQuery
	}
	return refined
}
