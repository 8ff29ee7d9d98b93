package confidence

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/models"
)

func ctxWithScore(score, trust, authority float64) *models.EnhancedContext {
	return &models.EnhancedContext{
		Score: score,
		Metadata: models.ContextMetadata{
			Trustworthiness: trust,
			Authority:       authority,
			Recency:         time.Now(),
		},
	}
}

func TestEstimateZeroContexts(t *testing.T) {
	svc := NewService(common.GetLogger())

	got := svc.Estimate(context.Background(), &models.QueryAnalysis{Confidence: 0.9}, "an answer", 0.95, nil)
	assert.Equal(t, 0.0, got)
}

func TestEstimateTakesMaximum(t *testing.T) {
	svc := NewService(common.GetLogger())
	contexts := []*models.EnhancedContext{
		ctxWithScore(0.4, 0.5, 0.5),
	}

	// Oracle estimate dominates the weak formulaic and metadata values
	got := svc.Estimate(context.Background(), &models.QueryAnalysis{Confidence: 0.2}, "", 0.9, contexts)
	assert.Equal(t, 0.9, got)
}

func TestEstimateFormulaicValue(t *testing.T) {
	svc := NewService(common.GetLogger())

	analysis := &models.QueryAnalysis{Confidence: 1.0}
	answer := strings.Repeat("a", 500)
	contexts := []*models.EnhancedContext{
		// Low trust and authority keep the metadata estimate small
		ctxWithScore(1.0, 0.1, 0.1),
		ctxWithScore(1.0, 0.1, 0.1),
		ctxWithScore(1.0, 0.1, 0.1),
		ctxWithScore(1.0, 0.1, 0.1),
		ctxWithScore(1.0, 0.1, 0.1),
	}

	// 0.3*1 + 0.3*1 + 0.2*1 + 0.2*1 = 1.0
	got := svc.Estimate(context.Background(), analysis, answer, 0, contexts)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestEstimateMetadataValue(t *testing.T) {
	svc := NewService(common.GetLogger())

	// Strong metadata, weak everything else
	contexts := []*models.EnhancedContext{
		ctxWithScore(1.0, 1.0, 1.0),
	}

	got := svc.Estimate(context.Background(), &models.QueryAnalysis{Confidence: 0}, "", 0, contexts)

	// metadata = 1*1*1 = 1.0 beats formulaic 0.3*1 + 0.2*0.2 = 0.34
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestEstimateCappedAtOne(t *testing.T) {
	svc := NewService(common.GetLogger())
	contexts := []*models.EnhancedContext{ctxWithScore(0.5, 0.5, 0.5)}

	got := svc.Estimate(context.Background(), &models.QueryAnalysis{Confidence: 1}, "x", 1.8, contexts)
	assert.Equal(t, 1.0, got)
}

func TestEstimateNilAnalysis(t *testing.T) {
	svc := NewService(common.GetLogger())
	contexts := []*models.EnhancedContext{ctxWithScore(0.5, 0.5, 0.5)}

	got := svc.Estimate(context.Background(), nil, "", 0, contexts)
	assert.Greater(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
}
