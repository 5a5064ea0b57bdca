// Package router monta as rotas HTTP do servidor de proteção.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JeanGrijp/cardguard/internal/adapters/http/handlers"
	httpMiddleware "github.com/JeanGrijp/cardguard/internal/adapters/http/middleware"
	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
	"github.com/JeanGrijp/cardguard/internal/metrics"
)

// Route names used as rate limit identifiers and in RATE_LIMIT_ROUTES.
const (
	RouteSanitize  = "sanitize"
	RouteEscape    = "escape"
	RouteRateLimit = "rate-limit"
)

type Options struct {
	Mode      domain.Mode
	Guards    domain.GuardSet
	Limits    httpMiddleware.RateLimiterConfig
	StaticDir string
	Logger    *zap.SugaredLogger
}

// Protection agrupa o que o serviço de proteção oferece às rotas.
type Protection interface {
	ports.TextGuard
	ports.RateLimiter
}

func New(svc Protection, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	production := opts.Mode.IsProduction()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(httpMiddleware.NewRequestLogger(log))
	r.Use(httpMiddleware.NewSecurityHeadersMiddleware(production && opts.Guards.Enabled(domain.GuardFraming)))
	r.Use(httpMiddleware.NewVisitorMiddleware(production))

	r.Get("/healthz", handlers.HealthHandler(opts.Mode))
	r.Handle("/metrics", metrics.Handler())

	limiter := httpMiddleware.NewRateLimiterMiddleware(svc, opts.Limits)
	h := handlers.NewProtectionHandler(svc, svc, log)

	r.Route("/api/protection", func(r chi.Router) {
		r.With(limiter.For(RouteSanitize)).Post("/sanitize", h.Sanitize)
		r.With(limiter.For(RouteEscape)).Post("/escape", h.Escape)
		r.With(limiter.For(RouteRateLimit)).Post("/rate-limit", h.RateLimit)
	})

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}
