package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/pratik-mahalle/emsdispatch/docs"
	"github.com/pratik-mahalle/emsdispatch/internal/api/handlers"
	"github.com/pratik-mahalle/emsdispatch/internal/api/middleware"
	"github.com/pratik-mahalle/emsdispatch/internal/config"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/metrics"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health   *handlers.HealthHandler
	Alert    *handlers.AlertHandler
	Archive  *handlers.ArchiveHandler
	Presence *handlers.PresenceHandler
	User     *handlers.UserHandler
	Realtime *handlers.RealtimeHandler
}

// New builds the API router
func New(cfg *config.Config, log *logger.Logger, verifier *middleware.TokenVerifier, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))

	// Ops routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Handle("/metrics", metrics.Handler())

		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)

		// Anyone may report an emergency; a valid token attributes the report.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
			r.Use(verifier.OptionalAuth)
			r.Post("/alerts", h.Alert.Submit)
		})

		// Realtime sessions are long-lived and exempt from request rate limits.
		r.Group(func(r chi.Router) {
			r.Use(verifier.Auth)
			r.Get("/realtime/ws", h.Realtime.WebSocket)
			r.Get("/realtime/events", h.Realtime.Events)
		})

		r.Group(func(r chi.Router) {
			r.Use(verifier.Auth)
			r.Use(middleware.ActorRateLimit(cfg.Server.RateLimitRPS*2, cfg.Server.RateLimitBurst*2))

			r.Get("/alerts", h.Alert.List)
			r.Get("/alerts/mine", h.Alert.Mine)
			r.Get("/alerts/{id}", h.Alert.Get)

			r.Get("/users/me", h.User.Me)
			r.Post("/users/me/push-tokens", h.User.RegisterPushToken)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff)

				r.Patch("/alerts/{id}/status", h.Alert.Transition)
				r.Get("/presence", h.Presence.Snapshot)

				r.Route("/archive", func(r chi.Router) {
					r.Get("/", h.Archive.List)
					r.Get("/{id}", h.Archive.Get)
					r.With(middleware.RequireAdmin).Delete("/{id}", h.Archive.Delete)
				})
			})
		})
	})

	return r
}
