package models

import (
	"time"
)

// DocumentChunk represents a bounded slice of document text together with
// its embedding vector. Chunks are produced by an external extraction and
// embedding pipeline and stored as-is.
type DocumentChunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Embedding []float32     `json:"embedding"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// ChunkMetadata identifies where a chunk came from within its document.
type ChunkMetadata struct {
	DocumentID string `json:"document_id"`
	Section    string `json:"section,omitempty"`
}

// DocumentMeta is the optional sidecar record persisted alongside a
// document's chunk file. All fields come from the ingestion collaborator.
type DocumentMeta struct {
	Filename         string    `json:"filename,omitempty"`
	UploadDate       time.Time `json:"upload_date"`
	ChunkCount       int       `json:"chunk_count"`
	FileSizeBytes    int64     `json:"file_size_bytes,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms,omitempty"`
}

// StoreStats summarizes the current contents of the vector store.
type StoreStats struct {
	DocumentCount int `json:"document_count"`
	ChunkCount    int `json:"chunk_count"`
	Dimension     int `json:"dimension,omitempty"`
}

// ScoredChunk pairs a chunk with a similarity score from a single search pass.
type ScoredChunk struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float64       `json:"score"`
}
