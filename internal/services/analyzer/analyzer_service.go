package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

const analysisSystemPrompt = `You are a query analysis component in a document retrieval system.
Analyze the user's search query and respond with ONLY a JSON object, no other text:
{
  "expanded_query": "the query rewritten with synonyms and related terms for better recall",
  "intent": "one of: question, summary, comparison, definition, instruction, complex",
  "entities": ["named entities mentioned in the query"],
  "keywords": ["the most important search terms"],
  "confidence": 0.0
}
Set confidence to how certain you are about the intent classification, between 0 and 1.`

// Service analyzes queries through the oracle, degrading to a
// deterministic analysis whenever the oracle fails or returns something
// unparsable. Analysis never fails once the query passes validation.
type Service struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewService creates a query analyzer
func NewService(llm interfaces.LLMService, logger arbor.ILogger) interfaces.QueryAnalyzer {
	return &Service{
		llm:    llm,
		logger: logger,
	}
}

// Analyze classifies intent and extracts entities and keywords for a
// query. An empty query is rejected before any oracle call.
func (s *Service) Analyze(ctx context.Context, query string) (*models.QueryAnalysis, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.ErrEmptyQuery
	}

	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: query},
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Query analysis oracle failed, using fallback")
		return fallbackAnalysis(query), nil
	}

	analysis, err := parseAnalysis(query, response)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Query analysis response unparsable, using fallback")
		return fallbackAnalysis(query), nil
	}

	s.logger.Debug().
		Str("intent", string(analysis.Intent)).
		Int("entities", len(analysis.Entities)).
		Int("keywords", len(analysis.Keywords)).
		Float64("confidence", analysis.Confidence).
		Msg("Query analyzed")

	return analysis, nil
}

// fallbackAnalysis is the deterministic analysis used when the oracle is
// unavailable
func fallbackAnalysis(query string) *models.QueryAnalysis {
	return &models.QueryAnalysis{
		OriginalQuery: query,
		ExpandedQuery: query,
		Intent:        models.IntentQuestion,
		Entities:      []string{},
		Keywords:      []string{},
		Confidence:    0.5,
	}
}

// analysisResponse mirrors the JSON shape requested from the oracle
type analysisResponse struct {
	ExpandedQuery string   `json:"expanded_query"`
	Intent        string   `json:"intent"`
	Entities      []string `json:"entities"`
	Keywords      []string `json:"keywords"`
	Confidence    float64  `json:"confidence"`
}

func parseAnalysis(query, response string) (*models.QueryAnalysis, error) {
	payload := ExtractJSON(response)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in oracle response")
	}

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}

	intent := models.QueryIntent(strings.ToLower(strings.TrimSpace(parsed.Intent)))
	if !models.ValidIntent(intent) {
		return nil, fmt.Errorf("unknown intent %q in oracle response", parsed.Intent)
	}

	expanded := strings.TrimSpace(parsed.ExpandedQuery)
	if expanded == "" {
		expanded = query
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	analysis := &models.QueryAnalysis{
		OriginalQuery: query,
		ExpandedQuery: expanded,
		Intent:        intent,
		Entities:      parsed.Entities,
		Keywords:      parsed.Keywords,
		Confidence:    confidence,
	}
	if analysis.Entities == nil {
		analysis.Entities = []string{}
	}
	if analysis.Keywords == nil {
		analysis.Keywords = []string{}
	}

	return analysis, nil
}

// ExtractJSON pulls the first JSON object out of an oracle response,
// tolerating markdown code fences and surrounding prose.
func ExtractJSON(response string) string {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}
