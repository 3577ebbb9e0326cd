package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"botagent/internal/domain"
	"botagent/internal/history"
	"botagent/internal/infra"
	"botagent/internal/pipeline"
	"botagent/internal/schedule"
	"botagent/internal/storage"
)

type App struct {
	Scheduler *schedule.Scheduler
	Pipeline  *pipeline.Pipeline
	History   *history.Service
	Blobs     *storage.FileStore
	Logger    infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, codeStr, msg string) {
	a.json(w, code, map[string]string{"error": codeStr, "message": msg})
}

// generationError maps domain failures to HTTP without leaking raw provider
// responses to the client.
func (a *App) generationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "item not found")
	case errors.Is(err, domain.ErrRateLimited):
		a.error(w, http.StatusTooManyRequests, "rate_limited", "provider quota exhausted, try again later")
	case errors.Is(err, domain.ErrTimeout):
		a.error(w, http.StatusGatewayTimeout, "timeout", "render did not settle in time")
	default:
		a.error(w, http.StatusBadGateway, "generation_failed", "generation failed")
	}
}
