package interfaces

import (
	"context"

	"github.com/ternarybob/reperio/internal/models"
)

// VectorStorage persists document chunks with their embeddings and serves
// similarity scans over them. One document maps to one durable unit;
// storing a document replaces any prior version atomically.
type VectorStorage interface {
	// StoreDocument persists all chunks for a document, replacing any
	// existing chunks under the same ID. Meta is optional.
	StoreDocument(ctx context.Context, documentID string, chunks []models.DocumentChunk, meta *models.DocumentMeta) error

	// GetDocument returns the chunks for a document, or an error if the
	// document does not exist.
	GetDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error)

	// GetDocumentMeta returns the sidecar metadata for a document, or nil
	// when none was stored.
	GetDocumentMeta(ctx context.Context, documentID string) (*models.DocumentMeta, error)

	// DeleteDocument removes a document and its metadata. Deleting an
	// absent document is not an error.
	DeleteDocument(ctx context.Context, documentID string) error

	// ListDocuments returns the IDs of all stored documents.
	ListDocuments(ctx context.Context) ([]string, error)

	// SearchDocument scores every chunk of one document against the query
	// embedding and returns the top limit matches, best first. An unknown
	// document yields an empty result, not an error.
	SearchDocument(ctx context.Context, documentID string, embedding []float32, limit int) ([]models.ScoredChunk, error)

	// SearchAll scores every chunk across all documents, keeps matches
	// scoring above minScore, and returns the top limit, best first.
	SearchAll(ctx context.Context, embedding []float32, limit int, minScore float64) ([]models.ScoredChunk, error)

	// Stats summarizes the store contents.
	Stats(ctx context.Context) (*models.StoreStats, error)
}

// GraphStorage holds the knowledge graph entities the traversal strategy
// walks. Population is the responsibility of an external collaborator.
type GraphStorage interface {
	// PutEntity inserts or replaces a graph entity.
	PutEntity(ctx context.Context, entity *models.GraphEntity) error

	// GetEntity returns an entity by ID, or nil when absent.
	GetEntity(ctx context.Context, id string) (*models.GraphEntity, error)

	// FindByName returns entities whose normalized name matches the given
	// name after normalization.
	FindByName(ctx context.Context, name string) ([]*models.GraphEntity, error)

	// Neighbors returns entities related to the given entity in either
	// direction, outgoing edges first.
	Neighbors(ctx context.Context, id string) ([]*models.GraphEntity, error)

	// Count returns the number of stored entities.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying store.
	Close() error
}
