package embeddings

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/services/llm"
)

// Service generates embeddings through the Gemini provider. Embeddings
// always go through Gemini even when Claude is the oracle provider,
// since Claude has no embedding endpoint.
type Service struct {
	gemini *llm.GeminiService
	logger arbor.ILogger
}

// NewService creates an embedding service backed by Gemini
func NewService(config *common.GeminiConfig, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	gemini, err := llm.NewGeminiService(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	return &Service{
		gemini: gemini,
		logger: logger,
	}, nil
}

// GenerateEmbedding generates an embedding for raw text
func (s *Service) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	return s.gemini.Embed(ctx, text)
}

// GenerateQueryEmbedding generates an embedding for a search query.
// Queries and documents share the same embedding space.
func (s *Service) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	return s.gemini.Embed(ctx, query)
}

// ModelName returns the embedding model name
func (s *Service) ModelName() string {
	return s.gemini.EmbeddingModel()
}

// Dimension returns the embedding dimensionality
func (s *Service) Dimension() int {
	return s.gemini.EmbeddingDimension()
}

// IsAvailable checks whether the embedding provider can serve requests
func (s *Service) IsAvailable(ctx context.Context) bool {
	if err := s.gemini.HealthCheck(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Embedding service unavailable")
		return false
	}
	return true
}
