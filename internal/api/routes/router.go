package routes

import (
	"net/http"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/api/handlers"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/api/middleware"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	ocsHandler *handlers.OCSHandler
	sseHandler *handlers.SSEHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. sseHandler may be nil when no event bus is
// configured.
func NewRouter(
	ocsHandler *handlers.OCSHandler,
	sseHandler *handlers.SSEHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		ocsHandler:     ocsHandler,
		sseHandler:     sseHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", handlers.Health(r.sseHandler))

	// OCS upload and dispatch
	r.mux.HandleFunc("POST /api/ocs/uploads", r.ocsHandler.Upload)
	r.mux.HandleFunc("GET /api/ocs/uploads/{id}/matches", r.ocsHandler.GetMatches)
	r.mux.HandleFunc("POST /api/ocs/uploads/{id}/dispatch", r.ocsHandler.Dispatch)
	r.mux.HandleFunc("DELETE /api/ocs/uploads/{id}", r.ocsHandler.DiscardUpload)
	r.mux.HandleFunc("GET /api/ocs/analysis", r.ocsHandler.GetAnalysis)

	// Dispatch progress
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/dispatch/{cycleId}", r.sseHandler.StreamDispatch)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
