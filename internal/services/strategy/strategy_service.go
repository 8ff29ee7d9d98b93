package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/analyzer"
)

const selectionSystemPrompt = `You are a retrieval strategy selector in a document retrieval system.
Given an analyzed query, choose exactly one retrieval strategy:
- "simple": single hybrid search pass, for focused factual queries
- "multi_stage": iterative refinement over several rounds, for broad or layered questions
- "knowledge_graph": entity relationship traversal, for queries about connections between named things
- "multimodal": queries asking about images, charts, tables, or other non-text content
- "expert_domain": deep technical queries needing exhaustive domain coverage

Respond with ONLY a JSON object, no other text:
{
  "kind": "one of the five strategy names",
  "confidence": 0.0,
  "reasoning": "one sentence explaining the choice",
  "parameters": {"stages": 0, "graph_depth": 0, "domain_focus": "", "modality_types": []}
}
Omit or zero any parameter the strategy does not need.`

// Service selects a retrieval strategy through the oracle, degrading to
// the simple strategy whenever the oracle fails or answers unparsably.
type Service struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewService creates a strategy selector
func NewService(llm interfaces.LLMService, logger arbor.ILogger) interfaces.StrategySelector {
	return &Service{
		llm:    llm,
		logger: logger,
	}
}

// Select chooses the retrieval strategy for an analyzed query
func (s *Service) Select(ctx context.Context, analysis *models.QueryAnalysis) (*models.RetrievalStrategy, error) {
	if analysis == nil {
		return models.FallbackStrategy(), nil
	}

	prompt := fmt.Sprintf("Query: %s\nIntent: %s\nEntities: %s\nKeywords: %s",
		analysis.OriginalQuery,
		analysis.Intent,
		strings.Join(analysis.Entities, ", "),
		strings.Join(analysis.Keywords, ", "))

	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: selectionSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Strategy selection oracle failed, using simple strategy")
		return models.FallbackStrategy(), nil
	}

	selected, err := parseStrategy(response)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Strategy selection response unparsable, using simple strategy")
		return models.FallbackStrategy(), nil
	}

	s.logger.Debug().
		Str("strategy", string(selected.Kind)).
		Float64("confidence", selected.Confidence).
		Str("reasoning", selected.Reasoning).
		Msg("Retrieval strategy selected")

	return selected, nil
}

// strategyResponse mirrors the JSON shape requested from the oracle
type strategyResponse struct {
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Parameters struct {
		Stages        int      `json:"stages"`
		GraphDepth    int      `json:"graph_depth"`
		DomainFocus   string   `json:"domain_focus"`
		ModalityTypes []string `json:"modality_types"`
	} `json:"parameters"`
}

func parseStrategy(response string) (*models.RetrievalStrategy, error) {
	payload := analyzer.ExtractJSON(response)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in oracle response")
	}

	var parsed strategyResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode strategy response: %w", err)
	}

	kind := models.StrategyKind(strings.ToLower(strings.TrimSpace(parsed.Kind)))
	if !models.ValidStrategyKind(kind) {
		return nil, fmt.Errorf("unknown strategy kind %q in oracle response", parsed.Kind)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &models.RetrievalStrategy{
		Kind:       kind,
		Confidence: confidence,
		Reasoning:  strings.TrimSpace(parsed.Reasoning),
		Parameters: models.StrategyParameters{
			Stages:        parsed.Parameters.Stages,
			GraphDepth:    parsed.Parameters.GraphDepth,
			DomainFocus:   parsed.Parameters.DomainFocus,
			ModalityTypes: parsed.Parameters.ModalityTypes,
		},
	}, nil
}
