package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"botagent/internal/http/handlers"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/agent", func(r chi.Router) {
		r.Get("/status", app.AgentStatus)
		r.Put("/long", app.AgentUpdateLong)
		r.Put("/short", app.AgentUpdateShort)
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", app.HistoryList)
		r.Post("/{id}/downloaded", app.HistoryMarkDownloaded)
		r.Post("/{id}/video", app.HistoryRenderVideo)
	})

	r.Get("/blobs/*", app.BlobDownload)

	return r
}
