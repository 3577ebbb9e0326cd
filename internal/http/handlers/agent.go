package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"botagent/internal/domain"
)

type agentKindStatus struct {
	Enabled bool   `json:"enabled"`
	Cadence int    `json:"cadence"`
	Status  string `json:"status"`
}

type agentStatusResponse struct {
	Long struct {
		agentKindStatus
		DurationMinutes int `json:"durationMinutes"`
	} `json:"long"`
	Short agentKindStatus `json:"short"`
}

// agentUpdateRequest carries a partial update; absent fields keep their
// current values.
type agentUpdateRequest struct {
	Enabled         *bool `json:"enabled"`
	Cadence         *int  `json:"cadence"`
	DurationMinutes *int  `json:"durationMinutes"`
}

func (a *App) AgentStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	longEnabled, shortEnabled, longCadence, shortCadence, longDuration := a.Scheduler.Config()

	var resp agentStatusResponse
	resp.Long.Enabled = longEnabled
	resp.Long.Cadence = longCadence
	resp.Long.DurationMinutes = longDuration
	resp.Long.Status = a.Scheduler.Status(domain.JobKindLong, now)
	resp.Short = agentKindStatus{
		Enabled: shortEnabled,
		Cadence: shortCadence,
		Status:  a.Scheduler.Status(domain.JobKindShort, now),
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) AgentUpdateLong(w http.ResponseWriter, r *http.Request) {
	a.updateAgent(w, r, domain.JobKindLong)
}

func (a *App) AgentUpdateShort(w http.ResponseWriter, r *http.Request) {
	a.updateAgent(w, r, domain.JobKindShort)
}

func (a *App) updateAgent(w http.ResponseWriter, r *http.Request, kind domain.JobKind) {
	var req agentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	ctx := r.Context()
	if req.Enabled != nil {
		if err := a.Scheduler.SetEnabled(ctx, kind, *req.Enabled); err != nil {
			a.Logger.Error().Err(err).Msg("handlers: toggle failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to persist setting")
			return
		}
	}
	if req.Cadence != nil {
		if err := a.Scheduler.SetCadence(ctx, kind, *req.Cadence); err != nil {
			a.Logger.Error().Err(err).Msg("handlers: cadence update failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to persist setting")
			return
		}
	}
	if req.DurationMinutes != nil && kind == domain.JobKindLong {
		if err := a.Scheduler.SetLongDuration(ctx, *req.DurationMinutes); err != nil {
			a.Logger.Error().Err(err).Msg("handlers: duration update failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to persist setting")
			return
		}
	}
	a.AgentStatus(w, r)
}
