package models

// QueryIntent classifies what kind of answer a query is looking for.
type QueryIntent string

const (
	IntentQuestion    QueryIntent = "question"
	IntentSummary     QueryIntent = "summary"
	IntentComparison  QueryIntent = "comparison"
	IntentDefinition  QueryIntent = "definition"
	IntentInstruction QueryIntent = "instruction"
	IntentComplex     QueryIntent = "complex"
)

// ValidIntent reports whether the value is one of the known intents.
// Oracle responses are validated against this before being trusted.
func ValidIntent(intent QueryIntent) bool {
	switch intent {
	case IntentQuestion, IntentSummary, IntentComparison,
		IntentDefinition, IntentInstruction, IntentComplex:
		return true
	}
	return false
}

// QueryAnalysis is the per-request analysis of a user query.
// Built fresh for every request and never persisted.
type QueryAnalysis struct {
	OriginalQuery string      `json:"original_query"`
	ExpandedQuery string      `json:"expanded_query"`
	Intent        QueryIntent `json:"intent"`
	Entities      []string    `json:"entities"`
	Keywords      []string    `json:"keywords"`
	Confidence    float64     `json:"confidence"`
}
