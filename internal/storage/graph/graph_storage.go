package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// Storage persists knowledge graph entities in BadgerDB via badgerhold.
// The graph is written by an external ingestion collaborator and read by
// the knowledge graph retrieval strategy.
type Storage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewStorage creates a graph storage backed by the given connection
func NewStorage(db *BadgerDB, logger arbor.ILogger) interfaces.GraphStorage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// NormalizeName canonicalizes an entity name for lookup: lowercased,
// trimmed, inner whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// PutEntity inserts or replaces a graph entity
func (s *Storage) PutEntity(ctx context.Context, entity *models.GraphEntity) error {
	if entity.ID == "" {
		return fmt.Errorf("entity ID cannot be empty")
	}
	if entity.Name == "" {
		return fmt.Errorf("entity name cannot be empty")
	}
	entity.NormalizedName = NormalizeName(entity.Name)

	if err := s.db.Store().Upsert(entity.ID, entity); err != nil {
		return fmt.Errorf("failed to store entity %s: %w", entity.ID, err)
	}

	s.logger.Debug().
		Str("entity_id", entity.ID).
		Str("name", entity.Name).
		Int("relationships", len(entity.Relationships)).
		Msg("Graph entity stored")

	return nil
}

// GetEntity returns an entity by ID, or nil when absent
func (s *Storage) GetEntity(ctx context.Context, id string) (*models.GraphEntity, error) {
	var entity models.GraphEntity
	err := s.db.Store().Get(id, &entity)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entity %s: %w", id, err)
	}
	return &entity, nil
}

// FindByName returns entities whose normalized name matches the given
// name after normalization
func (s *Storage) FindByName(ctx context.Context, name string) ([]*models.GraphEntity, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, nil
	}

	var entities []*models.GraphEntity
	err := s.db.Store().Find(&entities, badgerhold.Where("NormalizedName").Eq(normalized).Index("NormalizedName"))
	if err != nil {
		return nil, fmt.Errorf("failed to find entities by name %q: %w", name, err)
	}
	return entities, nil
}

// Neighbors returns entities related to the given entity in either
// direction. Outgoing edges come first, in stored order; incoming edges
// follow. An unknown ID yields an empty result.
func (s *Storage) Neighbors(ctx context.Context, id string) ([]*models.GraphEntity, error) {
	entity, err := s.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{id: true}
	var neighbors []*models.GraphEntity

	if entity != nil {
		for _, rel := range entity.Relationships {
			if seen[rel.Target] {
				continue
			}
			seen[rel.Target] = true

			target, err := s.GetEntity(ctx, rel.Target)
			if err != nil {
				return nil, err
			}
			if target != nil {
				neighbors = append(neighbors, target)
			}
		}
	}

	// Incoming edges require a scan since relationships are embedded in
	// the source entity
	var incoming []*models.GraphEntity
	err = s.db.Store().Find(&incoming, badgerhold.Where("Relationships").MatchFunc(func(ra *badgerhold.RecordAccess) (bool, error) {
		record, ok := ra.Record().(*models.GraphEntity)
		if !ok {
			return false, nil
		}
		for _, rel := range record.Relationships {
			if rel.Target == id {
				return true, nil
			}
		}
		return false, nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to scan incoming relationships for %s: %w", id, err)
	}

	for _, source := range incoming {
		if seen[source.ID] {
			continue
		}
		seen[source.ID] = true
		neighbors = append(neighbors, source)
	}

	return neighbors, nil
}

// Count returns the number of stored entities
func (s *Storage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.GraphEntity{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return int(count), nil
}

// Close releases the underlying store
func (s *Storage) Close() error {
	return s.db.Close()
}
