package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/utils"
)

type healthchecker interface {
	handleHealth(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db *sql.DB
}

func NewHealthchecker(db *sql.DB) healthchecker {
	return &healthcheckerImpl{db: db}
}

// handleHealth succeeds only when both the process and the database are
// reachable. Operator scripts poll this before considering startup done.
func (h *healthcheckerImpl) handleHealth(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.QueryRow(`SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB) {
	healthchecker := NewHealthchecker(db)
	mux.HandleFunc("GET /health", healthchecker.handleHealth)
}
