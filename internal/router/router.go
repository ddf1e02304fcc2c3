package router

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/handler"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/middleware"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/platform/metrics"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Health  *handler.HealthHandler
}

type Options struct {
	// AuthRateLimit is the number of POST /auth requests allowed per client IP per minute.
	AuthRateLimit int
}

func New(h Handlers, sessions *middleware.Sessions, m *metrics.MetricsManager, logger *zap.Logger, opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics(m))

	r.Get("/healthz", h.Health.Check)

	r.Group(func(r chi.Router) {
		r.Use(sessions.Load)

		SetupAuthRoutes(r, h.Auth, opts.AuthRateLimit)

		r.Group(func(authRouter chi.Router) {
			authRouter.Use(sessions.RequireAuth)
			authRouter.Get("/api/profile", h.Profile.GetProfile)
		})
	})
	return r
}

// SetupAuthRoutes configures the auth page routes. Form submissions are rate
// limited per client IP.
func SetupAuthRoutes(r chi.Router, authHandler *handler.AuthHandler, limit int) {
	r.Get("/auth", authHandler.Render)

	r.Group(func(r chi.Router) {
		if limit > 0 {
			r.Use(httprate.LimitByIP(limit, time.Minute))
		}
		r.Post("/auth/submit", authHandler.Submit)
		r.Post("/auth/navigate/{page}", authHandler.Navigate)
		r.Post("/auth/resend", authHandler.Resend)
		r.Post("/auth/logout", authHandler.Logout)
	})
}
