package controller

import (
	"net/http"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/modules/readings/repository"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/modules/readings/types"
)

// Service is the slice of the readings service the HTTP layer needs.
type Service interface {
	Snapshot() types.Snapshot
	Chart() []types.ChartPoint
	SwitchMode(name string) error
	SetIntervalMS(ms int) (int, error)
}

type readingsController struct {
	svc  Service
	repo repository.ReadingsRepository
}

func NewController(svc Service, repo repository.ReadingsRepository) *readingsController {
	return &readingsController{svc: svc, repo: repo}
}

func (c *readingsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshot", c.handleSnapshot)
	mux.HandleFunc("GET /api/chart", c.handleChart)
	mux.HandleFunc("GET /api/history", c.handleHistory)
	mux.HandleFunc("POST /api/mode", c.handleMode)
	mux.HandleFunc("POST /api/interval", c.handleInterval)
}
