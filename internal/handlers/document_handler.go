package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// DocumentHandler serves the document ingestion and lookup API over the
// vector store
type DocumentHandler struct {
	store  interfaces.VectorStorage
	logger arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(store interfaces.VectorStorage, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		store:  store,
		logger: logger,
	}
}

// documentUpload is the PUT request body for document ingestion
type documentUpload struct {
	Chunks []models.DocumentChunk `json:"chunks"`
	Meta   *models.DocumentMeta   `json:"meta,omitempty"`
}

// documentSummary is one entry in the document list response
type documentSummary struct {
	DocumentID string               `json:"document_id"`
	Meta       *models.DocumentMeta `json:"meta,omitempty"`
}

// DocumentIDFromPath extracts the document ID from /api/documents/{id}
func DocumentIDFromPath(path string) string {
	id := strings.TrimPrefix(path, "/api/documents/")
	return strings.Trim(id, "/")
}

// ListHandler handles GET /api/documents
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ids, err := h.store.ListDocuments(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list documents")
		WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	documents := make([]documentSummary, 0, len(ids))
	for _, id := range ids {
		meta, err := h.store.GetDocumentMeta(r.Context(), id)
		if err != nil {
			// Deleted between list and lookup
			continue
		}
		documents = append(documents, documentSummary{DocumentID: id, Meta: meta})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// StatsHandler handles GET /api/documents/stats
func (h *DocumentHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read store stats")
		WriteError(w, http.StatusInternalServerError, "Failed to read store stats")
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// UpsertHandler handles PUT /api/documents/{id}. Storing a document
// replaces any prior version under the same ID.
func (h *DocumentHandler) UpsertHandler(w http.ResponseWriter, r *http.Request) {
	id := DocumentIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	var upload documentUpload
	if err := json.NewDecoder(r.Body).Decode(&upload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(upload.Chunks) == 0 {
		WriteError(w, http.StatusBadRequest, "Document must contain at least one chunk")
		return
	}

	if err := h.store.StoreDocument(r.Context(), id, upload.Chunks, upload.Meta); err != nil {
		if errors.Is(err, models.ErrDimensionMismatch) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("document_id", id).Msg("Failed to store document")
		WriteError(w, http.StatusInternalServerError, "Failed to store document")
		return
	}

	h.logger.Info().
		Str("document_id", id).
		Int("chunks", len(upload.Chunks)).
		Msg("Document stored")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"document_id": id,
		"chunk_count": len(upload.Chunks),
	})
}

// GetHandler handles GET /api/documents/{id}
func (h *DocumentHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id := DocumentIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	chunks, err := h.store.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			WriteError(w, http.StatusNotFound, "Document not found: "+id)
			return
		}
		h.logger.Error().Err(err).Str("document_id", id).Msg("Failed to read document")
		WriteError(w, http.StatusInternalServerError, "Failed to read document")
		return
	}

	meta, _ := h.store.GetDocumentMeta(r.Context(), id)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"chunks":      chunks,
		"meta":        meta,
	})
}

// DeleteHandler handles DELETE /api/documents/{id}. Deleting an absent
// document succeeds.
func (h *DocumentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := DocumentIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	if err := h.store.DeleteDocument(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Str("document_id", id).Msg("Failed to delete document")
		WriteError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	h.logger.Info().Str("document_id", id).Msg("Document deleted")
	WriteSuccess(w, "Document deleted: "+id)
}
