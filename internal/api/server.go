// Package api exposes the incident REST endpoints. It translates HTTP
// requests into repository calls and propagated repository failures into
// protocol-level responses.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"incidentcore/internal/config"
	"incidentcore/internal/incidents"
)

// IncidentStore is the slice of the domain repository the HTTP layer
// consumes.
type IncidentStore interface {
	Create(ctx context.Context, params incidents.CreateParams) (*incidents.Incident, error)
	Get(ctx context.Context, id int64) (*incidents.Incident, error)
	List(ctx context.Context, params incidents.ListParams) ([]incidents.Incident, error)
	Update(ctx context.Context, id int64, params incidents.UpdateParams) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// Server handles the incident REST API.
type Server struct {
	store   IncidentStore
	limiter *rate.Limiter
	started time.Time
}

// NewServer creates an API server over the given store.
func NewServer(store IncidentStore, cfg *config.ServerConfig) *Server {
	return &Server{
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		started: time.Now(),
	}
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/incidents/create", s.handleCreate)
	mux.HandleFunc("GET /api/v1/incidents/get/{id}", s.handleGet)
	mux.HandleFunc("GET /api/v1/incidents/get", s.handleList)
	mux.HandleFunc("PUT /api/v1/incidents/update/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/v1/incidents/delete/{id}", s.handleDelete)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Everything else is denied, matching the catch-all of the public API.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "Access denied")
	})

	return withLogging(withCORS(withRateLimit(s.limiter, mux)))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
