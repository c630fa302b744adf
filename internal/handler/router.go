package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// RegisterRateLimit is the per-IP registration limit per minute.
	RegisterRateLimit int
	// EnableAccessLog turns on the structured access log.
	EnableAccessLog bool
}

// NewRouter builds the chi router with the middleware stack and all routes.
func NewRouter(h *EventHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.EnableAccessLog {
		r.Use(Logger)
	}
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Get("/registrations", h.ListRegistrations)
			r.Get("/requirements", h.MissingRequirements)
			r.Post("/decision", h.Decide)
			r.With(RegisterRateLimit(cfg.RegisterRateLimit)).Post("/registrations", h.Register)
		})
	})

	r.Route("/registrations/{id}", func(r chi.Router) {
		r.Get("/", h.GetRegistration)
		r.Delete("/", h.Unregister)
	})

	return r
}
