package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"botagent/internal/domain"
	"botagent/internal/topics"
)

// HistoryList returns the full history, newest first. An optional lang query
// parameter filters by language; free-form locale codes like "pt-BR" are
// accepted.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	items := a.History.Items()
	if code := r.URL.Query().Get("lang"); code != "" {
		lang, err := topics.Normalize(code)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "unsupported language")
			return
		}
		filtered := make([]domain.HistoryItem, 0, len(items))
		for _, item := range items {
			if item.Language == lang {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	a.json(w, http.StatusOK, items)
}

func (a *App) HistoryMarkDownloaded(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.History.MarkDownloaded(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "history item not found")
			return
		}
		a.Logger.Error().Err(err).Str("id", id).Msg("handlers: mark downloaded failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to persist history")
		return
	}
	item, _ := a.History.Get(id)
	a.json(w, http.StatusOK, item)
}

// HistoryRenderVideo renders the on-demand clip for one item. The render is
// synchronous; the write timeout of the server bounds how long a client can
// wait on it.
func (a *App) HistoryRenderVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key, err := a.Pipeline.RenderVideo(r.Context(), id)
	if err != nil {
		a.Logger.Error().Err(err).Str("id", id).Msg("handlers: video render failed")
		a.generationError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"id": id, "videoBlobKey": key})
}
