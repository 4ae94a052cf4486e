package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/sse", func(r chi.Router) {
		r.Get("/sse/{userID}", h.Stream)
		r.Post("/send-to-user/{userID}", h.SendToUser)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/events", h.IngestEvent)
		r.Get("/notifications", h.ListNotifications)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
		r.Get("/user-settings", h.GetUserSettings)
		r.Patch("/user-settings", h.UpdateUserSettings)
	})

	return r
}
