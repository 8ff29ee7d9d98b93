package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/reperio/internal/models"
)

// executeKnowledgeGraph expands the analyzed entities through the graph
// and searches once per entity name, original and discovered alike. The
// merged contexts carry the full discovered entity set as annotations.
// Without a graph store or analyzed entities this is a simple search.
func (e *Engine) executeKnowledgeGraph(ctx context.Context, analysis *models.QueryAnalysis, scope []string, limit int, depth int) ([]*models.EnhancedContext, error) {
	if e.graph == nil || len(analysis.Entities) == 0 {
		return e.executeSimple(ctx, analysis, scope, limit)
	}

	discovered, err := e.discoverEntities(ctx, analysis.Entities, depth)
	if err != nil {
		return nil, err
	}

	names := searchNames(analysis.Entities, discovered)

	// One hybrid pass per entity name, merged by chunk keeping the best score
	merged := make(map[string]models.ScoredChunk)
	var order []string
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}

		scored, err := e.hybridSearch(ctx, analysis, name, scope, limit)
		if err != nil {
			return nil, fmt.Errorf("entity search for %q failed: %w", name, err)
		}
		for _, sc := range scored {
			existing, ok := merged[sc.Chunk.ID]
			if !ok {
				order = append(order, sc.Chunk.ID)
			}
			if !ok || sc.Score > existing.Score {
				merged[sc.Chunk.ID] = sc
			}
		}
	}

	combined := make([]models.ScoredChunk, 0, len(order))
	for _, id := range order {
		combined = append(combined, merged[id])
	}

	contexts := e.enrichContexts(ctx, combined)
	annotateGraphFindings(contexts, discovered)
	sortByScore(contexts)

	e.logger.Debug().
		Int("entities", len(discovered)).
		Int("contexts", len(contexts)).
		Int("depth", depth).
		Msg("Knowledge graph traversal completed")

	return contexts, nil
}

// discoverEntities resolves the analyzed entity names in the graph and
// walks relationships breadth-first up to depth hops, bounded by the
// configured entity limit
func (e *Engine) discoverEntities(ctx context.Context, entityNames []string, depth int) ([]*models.GraphEntity, error) {
	seen := make(map[string]bool)
	var discovered []*models.GraphEntity

	for _, name := range entityNames {
		matches, err := e.graph.FindByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("graph lookup for %q failed: %w", name, err)
		}

		frontier := make([]*models.GraphEntity, 0, len(matches))
		for _, entity := range matches {
			if seen[entity.ID] {
				continue
			}
			seen[entity.ID] = true
			discovered = append(discovered, entity)
			frontier = append(frontier, entity)
		}

		for hop := 0; hop < depth && len(frontier) > 0; hop++ {
			var next []*models.GraphEntity
			for _, entity := range frontier {
				if len(discovered) >= e.config.GraphEntityLimit {
					return discovered, nil
				}
				neighbors, err := e.graph.Neighbors(ctx, entity.ID)
				if err != nil {
					return nil, fmt.Errorf("graph traversal from %q failed: %w", entity.ID, err)
				}
				for _, neighbor := range neighbors {
					if seen[neighbor.ID] {
						continue
					}
					seen[neighbor.ID] = true
					discovered = append(discovered, neighbor)
					next = append(next, neighbor)
					if len(discovered) >= e.config.GraphEntityLimit {
						return discovered, nil
					}
				}
			}
			frontier = next
		}
	}

	return discovered, nil
}

// searchNames merges the analyzed entity names with discovered graph
// entity names, deduplicated case-insensitively, analyzed names first
func searchNames(entityNames []string, discovered []*models.GraphEntity) []string {
	seen := make(map[string]bool)
	var names []string

	add := func(name string) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		names = append(names, name)
	}

	for _, name := range entityNames {
		add(name)
	}
	for _, entity := range discovered {
		add(entity.Name)
	}
	return names
}

// annotateGraphFindings stamps the discovered entity set and its
// relationship edges onto every context
func annotateGraphFindings(contexts []*models.EnhancedContext, discovered []*models.GraphEntity) {
	nameByID := make(map[string]string, len(discovered))
	for _, entity := range discovered {
		nameByID[entity.ID] = entity.Name
	}

	entityNames := make([]string, 0, len(discovered))
	var relationships []string
	for _, entity := range discovered {
		entityNames = append(entityNames, entity.Name)
		for _, rel := range entity.Relationships {
			target, ok := nameByID[rel.Target]
			if !ok {
				continue
			}
			relationships = append(relationships, fmt.Sprintf("%s -[%s]-> %s", entity.Name, rel.Relation, target))
		}
	}

	for _, c := range contexts {
		c.Metadata.ExtractedEntities = entityNames
		c.Metadata.Relationships = relationships
	}
}
