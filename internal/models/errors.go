package models

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is the sentinel for embedding length mismatches.
// Use errors.Is to test for it; the concrete *DimensionMismatchError carries
// the offending lengths.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ErrEmptyQuery is returned when a retrieval request carries no query text.
// Rejected before any oracle call is made.
var ErrEmptyQuery = errors.New("query cannot be empty")

// ErrDocumentNotFound is returned by direct document lookups. Search
// paths treat an unknown document as an empty result instead.
var ErrDocumentNotFound = errors.New("document not found")

// DimensionMismatchError reports two embeddings of different lengths.
// Similarity between mismatched vectors is never silently coerced.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}
