package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// StatusHandler reports application health, store contents, and
// scheduled job state
type StatusHandler struct {
	store     interfaces.VectorStorage
	graph     interfaces.GraphStorage
	llm       interfaces.LLMService
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
	startTime time.Time
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(store interfaces.VectorStorage, graph interfaces.GraphStorage, llm interfaces.LLMService, scheduler interfaces.SchedulerService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		store:     store,
		graph:     graph,
		llm:       llm,
		scheduler: scheduler,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := map[string]interface{}{
		"status":         "ok",
		"version":        common.GetVersion(),
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}

	if stats, err := h.store.Stats(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Store stats unavailable for status report")
	} else {
		status["documents"] = stats.DocumentCount
		status["chunks"] = stats.ChunkCount
		status["dimension"] = stats.Dimension
	}

	if h.graph != nil {
		if count, err := h.graph.Count(r.Context()); err == nil {
			status["graph_entities"] = count
		}
	}

	if h.llm != nil {
		status["llm_mode"] = string(h.llm.GetMode())
	}

	if h.scheduler != nil {
		status["scheduler_running"] = h.scheduler.IsRunning()
		status["jobs"] = h.scheduler.GetAllJobStatuses()
	}

	WriteJSON(w, http.StatusOK, status)
}
