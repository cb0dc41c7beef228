package httpapi

import (
	"net/http"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: requestLogger(mux),
	}
}
