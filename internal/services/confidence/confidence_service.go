package confidence

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// Service fuses three independent confidence estimates and reports the
// most optimistic one:
//
//  1. the oracle's own confidence from answer synthesis
//  2. a formulaic estimate from analysis confidence, context scores,
//     answer length, and context count
//  3. a metadata estimate from context trustworthiness and authority
type Service struct {
	logger arbor.ILogger
}

// NewService creates a confidence estimator
func NewService(logger arbor.ILogger) interfaces.ConfidenceEstimator {
	return &Service{logger: logger}
}

// Estimate returns the maximum of the three estimates, capped at 1.
// Zero retrieved contexts always yields 0.
func (s *Service) Estimate(ctx context.Context, analysis *models.QueryAnalysis, answer string, oracleConfidence float64, contexts []*models.EnhancedContext) float64 {
	if len(contexts) == 0 {
		return 0
	}

	formulaic := formulaicConfidence(analysis, answer, contexts)
	metadata := metadataConfidence(contexts)

	result := oracleConfidence
	if formulaic > result {
		result = formulaic
	}
	if metadata > result {
		result = metadata
	}
	if result > 1 {
		result = 1
	}
	if result < 0 {
		result = 0
	}

	s.logger.Debug().
		Float64("oracle", oracleConfidence).
		Float64("formulaic", formulaic).
		Float64("metadata", metadata).
		Float64("result", result).
		Msg("Confidence estimated")

	return result
}

// formulaicConfidence blends analysis confidence, mean context score,
// answer length, and context count:
//
//	0.3*analysis + 0.3*meanScore + 0.2*min(answerLen/500, 1) + 0.2*min(count/5, 1)
func formulaicConfidence(analysis *models.QueryAnalysis, answer string, contexts []*models.EnhancedContext) float64 {
	analysisConfidence := 0.0
	if analysis != nil {
		analysisConfidence = analysis.Confidence
	}

	var meanScore float64
	for _, c := range contexts {
		meanScore += c.Score
	}
	meanScore /= float64(len(contexts))

	answerFactor := float64(len(answer)) / 500
	if answerFactor > 1 {
		answerFactor = 1
	}

	countFactor := float64(len(contexts)) / 5
	if countFactor > 1 {
		countFactor = 1
	}

	return 0.3*analysisConfidence + 0.3*meanScore + 0.2*answerFactor + 0.2*countFactor
}

// metadataConfidence is the mean of trustworthiness * authority * score
// over all contexts
func metadataConfidence(contexts []*models.EnhancedContext) float64 {
	var sum float64
	for _, c := range contexts {
		sum += c.Metadata.Trustworthiness * c.Metadata.Authority * c.Score
	}
	return sum / float64(len(contexts))
}
