package models

import (
	"time"
)

// ContextMetadata carries the trust and relationship annotations attached
// to a retrieved chunk. Trustworthiness and authority default to neutral
// values when the ingestion side provides nothing better.
type ContextMetadata struct {
	DocumentType      string   `json:"document_type,omitempty"`
	Trustworthiness   float64  `json:"trustworthiness"`
	Recency           time.Time `json:"recency"`
	Authority         float64  `json:"authority"`
	Complexity        float64  `json:"complexity,omitempty"`
	Relationships     []string `json:"relationships,omitempty"`
	SemanticTags      []string `json:"semantic_tags,omitempty"`
	ExtractedEntities []string `json:"extracted_entities,omitempty"`
}

// EnhancedContext is a retrieved chunk annotated with its relevance score
// and trust metadata. Built per request, never persisted.
type EnhancedContext struct {
	Chunk    DocumentChunk   `json:"chunk"`
	Score    float64         `json:"score"`
	Metadata ContextMetadata `json:"metadata"`
}

// RetrievalResult is the final output of one retrieval invocation.
type RetrievalResult struct {
	Contexts     []*EnhancedContext `json:"contexts"`
	Strategy     *RetrievalStrategy `json:"strategy"`
	TotalFound   int                `json:"total_found"`
	SearchTimeMs int64              `json:"search_time_ms"`
}

const neutralTrust = 0.5

// NewEnhancedContext wraps a scored chunk with default metadata. The
// document's upload date (when known) seeds recency.
func NewEnhancedContext(chunk DocumentChunk, score float64, uploaded time.Time) *EnhancedContext {
	if uploaded.IsZero() {
		uploaded = time.Now()
	}
	return &EnhancedContext{
		Chunk: chunk,
		Score: score,
		Metadata: ContextMetadata{
			Trustworthiness: neutralTrust,
			Authority:       neutralTrust,
			Recency:         uploaded,
		},
	}
}
