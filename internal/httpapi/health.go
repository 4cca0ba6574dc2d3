package httpapi

import (
	"database/sql"
	"net/http"
)

// HealthHandler reports process liveness and storage mode. A nil db means
// the service runs on in-memory repositories.
type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	storage := "memory"
	if h.db != nil {
		storage = "postgres"
		if err := h.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "degraded",
				"storage": storage,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"storage": storage,
	})
}
