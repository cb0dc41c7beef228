package controller

import (
	"encoding/json"
	"net/http"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/utils"
)

func (c *readingsController) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.svc.Snapshot())
}

func (c *readingsController) handleChart(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.svc.Chart())
}

func (c *readingsController) handleHistory(w http.ResponseWriter, r *http.Request) {
	q, err := parseHistoryQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if q.ranged {
		rows, err := c.repo.ReadingsBetween(q.from, q.to, q.limit)
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.WriteJSON(w, http.StatusOK, rows)
		return
	}

	rows, err := c.repo.RecentReadings(q.limit)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (c *readingsController) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := c.svc.SwitchMode(req.Mode); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"mode": req.Mode})
}

type intervalRequest struct {
	MS *int `json:"ms"`
}

func (c *readingsController) handleInterval(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MS == nil {
		utils.WriteError(w, http.StatusBadRequest, "missing ms")
		return
	}

	ms, err := c.svc.SetIntervalMS(*req.MS)
	if err != nil {
		// One-shot user notification; the command is not retried.
		utils.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int{"ms": ms})
}
