package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

func NewRouter(handlers *Handlers, gatherer prometheus.Gatherer) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", handlers.HandleRoot)

	r.Get("/games", handlers.HandleGames)
	r.Post("/games/refresh", handlers.HandleRefreshGames)

	r.Get("/selection", handlers.HandleGetSelection)
	r.Put("/selection", handlers.HandleSelect)

	r.Get("/achievements", handlers.HandleAchievements)
	r.Get("/icons", handlers.HandleIcon)

	r.Get("/window", handlers.HandleGetWindow)
	r.Put("/window", handlers.HandlePutWindow)

	r.Handle("/metrics", SystemMetricsHandler(gatherer))
	r.Handle("/metrics/app", AppMetricsHandler(gatherer))

	return r
}
