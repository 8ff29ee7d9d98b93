package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Embed(ctx context.Context, text string) ([]float32, error) { return nil, nil }
func (s *stubLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return s.response, s.err
}
func (s *stubLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *stubLLM) GetMode() interfaces.LLMMode           { return interfaces.LLMModeCloud }
func (s *stubLLM) Close() error                          { return nil }

func analysis() *models.QueryAnalysis {
	return &models.QueryAnalysis{
		OriginalQuery: "how do solar panels relate to inverters",
		ExpandedQuery: "how do solar panels relate to inverters",
		Intent:        models.IntentQuestion,
		Entities:      []string{"solar panels", "inverters"},
		Keywords:      []string{"solar", "inverter"},
		Confidence:    0.8,
	}
}

func TestSelectParsesOracleResponse(t *testing.T) {
	svc := NewService(&stubLLM{response: `{
		"kind": "knowledge_graph",
		"confidence": 0.85,
		"reasoning": "query asks about relationships between named components",
		"parameters": {"graph_depth": 2}
	}`}, common.GetLogger())

	selected, err := svc.Select(context.Background(), analysis())
	require.NoError(t, err)
	assert.Equal(t, models.StrategyKnowledgeGraph, selected.Kind)
	assert.Equal(t, 0.85, selected.Confidence)
	assert.Equal(t, 2, selected.Parameters.GraphDepth)
	assert.NotEmpty(t, selected.Reasoning)
}

func TestSelectFallbackOnOracleError(t *testing.T) {
	svc := NewService(&stubLLM{err: errors.New("oracle unavailable")}, common.GetLogger())

	selected, err := svc.Select(context.Background(), analysis())
	require.NoError(t, err)
	assert.Equal(t, models.StrategySimple, selected.Kind)
	assert.Equal(t, 0.5, selected.Confidence)
	assert.Equal(t, "fallback", selected.Reasoning)
}

func TestSelectFallbackOnUnparsableResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose", "I would suggest the multi stage approach here."},
		{"unknown kind", `{"kind": "quantum", "confidence": 0.9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubLLM{response: tt.response}, common.GetLogger())

			selected, err := svc.Select(context.Background(), analysis())
			require.NoError(t, err)
			assert.Equal(t, models.StrategySimple, selected.Kind)
			assert.Equal(t, 0.5, selected.Confidence)
		})
	}
}

func TestSelectNilAnalysis(t *testing.T) {
	svc := NewService(&stubLLM{}, common.GetLogger())

	selected, err := svc.Select(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StrategySimple, selected.Kind)
}

func TestSelectClampsConfidence(t *testing.T) {
	svc := NewService(&stubLLM{response: `{"kind": "multi_stage", "confidence": 2.5, "parameters": {"stages": 3}}`}, common.GetLogger())

	selected, err := svc.Select(context.Background(), analysis())
	require.NoError(t, err)
	assert.Equal(t, models.StrategyMultiStage, selected.Kind)
	assert.Equal(t, 1.0, selected.Confidence)
	assert.Equal(t, 3, selected.Parameters.Stages)
}
