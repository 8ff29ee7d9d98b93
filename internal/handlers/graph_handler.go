package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// GraphHandler serves the knowledge graph population API. The retrieval
// pipeline only reads the graph; an external collaborator loads it here.
type GraphHandler struct {
	graph  interfaces.GraphStorage
	logger arbor.ILogger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(graph interfaces.GraphStorage, logger arbor.ILogger) *GraphHandler {
	return &GraphHandler{
		graph:  graph,
		logger: logger,
	}
}

// EntityIDFromPath extracts the entity ID from /api/graph/entities/{id}
func EntityIDFromPath(path string) string {
	id := strings.TrimPrefix(path, "/api/graph/entities/")
	return strings.Trim(id, "/")
}

// UpsertEntitiesHandler handles PUT /api/graph/entities with a JSON
// array of entities. Entities without an ID get one assigned.
func (h *GraphHandler) UpsertEntitiesHandler(w http.ResponseWriter, r *http.Request) {
	var entities []models.GraphEntity
	if err := json.NewDecoder(r.Body).Decode(&entities); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(entities) == 0 {
		WriteError(w, http.StatusBadRequest, "At least one entity is required")
		return
	}

	stored := 0
	for i := range entities {
		if entities[i].ID == "" {
			entities[i].ID = common.NewEntityID()
		}
		if err := h.graph.PutEntity(r.Context(), &entities[i]); err != nil {
			h.logger.Error().Err(err).Str("entity", entities[i].Name).Msg("Failed to store entity")
			WriteError(w, http.StatusBadRequest, "Failed to store entity "+entities[i].Name+": "+err.Error())
			return
		}
		stored++
	}

	h.logger.Info().Int("entities", stored).Msg("Graph entities stored")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"stored": stored,
	})
}

// GetEntityHandler handles GET /api/graph/entities/{id}
func (h *GraphHandler) GetEntityHandler(w http.ResponseWriter, r *http.Request) {
	id := EntityIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Entity ID is required")
		return
	}

	entity, err := h.graph.GetEntity(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("entity_id", id).Msg("Failed to read entity")
		WriteError(w, http.StatusInternalServerError, "Failed to read entity")
		return
	}
	if entity == nil {
		WriteError(w, http.StatusNotFound, "Entity not found: "+id)
		return
	}

	WriteJSON(w, http.StatusOK, entity)
}
