package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Documents
	mux.HandleFunc("/api/documents/stats", s.app.DocumentHandler.StatsHandler)
	mux.HandleFunc("/api/documents", s.app.DocumentHandler.ListHandler)
	mux.HandleFunc("/api/documents/", s.handleDocumentRoutes) // GET/PUT/DELETE /{id}

	// API routes - Retrieval
	mux.HandleFunc("/api/retrieve", s.app.RetrievalHandler.RetrieveHandler)

	// API routes - Knowledge graph population
	mux.HandleFunc("/api/graph/entities", s.handleGraphCollectionRoutes)
	mux.HandleFunc("/api/graph/entities/", s.app.GraphHandler.GetEntityHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleDocumentRoutes routes /api/documents/{id} by method
func (s *Server) handleDocumentRoutes(w http.ResponseWriter, r *http.Request) {
	RouteResourceItem(w, r,
		s.app.DocumentHandler.GetHandler,
		s.app.DocumentHandler.UpsertHandler,
		s.app.DocumentHandler.DeleteHandler,
	)
}

// handleGraphCollectionRoutes routes /api/graph/entities by method
func (s *Server) handleGraphCollectionRoutes(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"PUT":  s.app.GraphHandler.UpsertEntitiesHandler,
		"POST": s.app.GraphHandler.UpsertEntitiesHandler,
	})
}
