package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// RetrievalHandler serves the adaptive retrieval API
type RetrievalHandler struct {
	retrieval  interfaces.RetrievalService
	confidence interfaces.ConfidenceEstimator
	logger     arbor.ILogger
}

// NewRetrievalHandler creates a new retrieval handler
func NewRetrievalHandler(retrieval interfaces.RetrievalService, confidence interfaces.ConfidenceEstimator, logger arbor.ILogger) *RetrievalHandler {
	return &RetrievalHandler{
		retrieval:  retrieval,
		confidence: confidence,
		logger:     logger,
	}
}

// retrieveRequest is the POST /api/retrieve body. Strategy is optional;
// when present it bypasses adaptive selection.
type retrieveRequest struct {
	Query    string                    `json:"query"`
	Scope    []string                  `json:"scope,omitempty"`
	TopK     int                       `json:"top_k,omitempty"`
	Strategy *models.RetrievalStrategy `json:"strategy,omitempty"`
}

// retrieveResponse wraps the retrieval result with a confidence estimate
type retrieveResponse struct {
	*models.RetrievalResult
	Confidence float64 `json:"confidence"`
}

// RetrieveHandler handles POST /api/retrieve
func (h *RetrievalHandler) RetrieveHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var result *models.RetrievalResult
	var err error
	if req.Strategy != nil {
		result, err = h.retrieval.RetrieveWithStrategy(r.Context(), req.Query, req.Strategy, req.Scope, req.TopK)
	} else {
		result, err = h.retrieval.Retrieve(r.Context(), req.Query, req.Scope, req.TopK)
	}
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuery) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, models.ErrDimensionMismatch) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("query", req.Query).Msg("Retrieval failed")
		WriteError(w, http.StatusInternalServerError, "Retrieval failed")
		return
	}

	confidence := h.confidence.Estimate(r.Context(), nil, "", 0, result.Contexts)

	WriteJSON(w, http.StatusOK, retrieveResponse{
		RetrievalResult: result,
		Confidence:      confidence,
	})
}
