package surrealcrud

import (
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
	ReadOnly bool   `json:"read_only"`
}

// handleHealth pings the store. A failed ping yields 503 with status "unhealthy".
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "healthy",
		Backend:  a.store.Backend(),
		Database: a.store.Database(),
		ReadOnly: a.IsReadOnly(),
	}
	if err := a.store.Ping(r.Context()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("store ping failed")
		resp.Status = "unhealthy"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
