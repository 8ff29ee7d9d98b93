package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
)

const maintenanceTimeout = time.Minute

// NewMaintenanceJob builds the periodic maintenance handler: it logs
// vector store and graph statistics and runs one garbage collection
// round on the graph store. gc may be nil when the graph store does not
// need collection.
func NewMaintenanceJob(store interfaces.VectorStorage, graph interfaces.GraphStorage, gc func() error, logger arbor.ILogger) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
		defer cancel()

		stats, err := store.Stats(ctx)
		if err != nil {
			return fmt.Errorf("vector store stats failed: %w", err)
		}

		entityCount := 0
		if graph != nil {
			if count, err := graph.Count(ctx); err != nil {
				logger.Warn().Err(err).Msg("Graph entity count failed during maintenance")
			} else {
				entityCount = count
			}
		}

		logger.Info().
			Int("documents", stats.DocumentCount).
			Int("chunks", stats.ChunkCount).
			Int("dimension", stats.Dimension).
			Int("entities", entityCount).
			Msg("Maintenance check")

		if gc != nil {
			if err := gc(); err != nil {
				return fmt.Errorf("graph store gc failed: %w", err)
			}
		}
		return nil
	}
}
