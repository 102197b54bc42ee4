package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the session API.
func NewRouter(h *Handler, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)

			r.Post("/stations", h.CreateStation)
			r.Post("/stations/{stationID}/riders", h.SpawnRider)
			r.Post("/connect", h.Connect)
			r.Post("/click", h.Click)
			r.Post("/lines/{lineID}/trains", h.AddTrain)
			r.Delete("/lines/{lineID}", h.DeleteLine)
			r.Delete("/trains/{trainID}", h.DeleteTrain)

			r.Post("/pause", h.Pause)
			r.Post("/tick", h.Tick)
			r.Post("/reset", h.Reset)
		})
	})
	return r
}
