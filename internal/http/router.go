package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/preston-bernstein/bracket-live-service/internal/http/handlers"
	"github.com/preston-bernstein/bracket-live-service/internal/http/middleware"
	"github.com/preston-bernstein/bracket-live-service/internal/metrics"
)

// NewRouter registers HTTP routes on a chi router. live may be nil when the push socket is disabled.
func NewRouter(handler *handlers.Handler, live nethttp.Handler, logger *slog.Logger, recorder *metrics.Recorder) nethttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger, recorder))
	r.Use(chimw.Recoverer)
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready)
	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Get("/bracket", handler.BracketPage)
		r.Get("/bracket.svg", handler.BracketSVG)
		r.Get("/bracket.json", handler.BracketJSON)
		r.Post("/refresh", handler.Refresh)
		r.Get("/notifications", handler.Notifications)
		r.Post("/dialogs/start-match", handler.OpenStartMatchDialog)
		r.Delete("/dialogs/start-match", handler.CloseStartMatchDialog)
		if live != nil {
			r.Method(nethttp.MethodGet, "/live", live)
		}
	})
	return r
}
