package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quoteotter/lead-engine/internal/analytics"
	"github.com/quoteotter/lead-engine/internal/health"
	httpmiddleware "github.com/quoteotter/lead-engine/internal/http/middleware"
	"github.com/quoteotter/lead-engine/internal/leads"
	"github.com/quoteotter/lead-engine/internal/phonerisk"
	"github.com/quoteotter/lead-engine/internal/providers"
	"github.com/quoteotter/lead-engine/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	LeadsHandler     *leads.Handler
	ProvidersHandler *providers.Handler
	PhoneHandler     *phonerisk.Handler
	AnalyticsHandler *analytics.Handler
	HealthHandler    *health.Handler
	MetricsHandler   http.Handler

	APIKeys            []string
	AdminAuthSecret    string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Get("/health", cfg.HealthHandler.Live)
			public.Get("/health/ready", cfg.HealthHandler.Ready)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Partner API, gated by API key and rate limited per IP.
	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimitPerSecond > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}
		api.Use(httpmiddleware.APIKey(cfg.APIKeys))

		if cfg.LeadsHandler != nil {
			api.Route("/leads", cfg.LeadsHandler.Routes)
		}
		if cfg.ProvidersHandler != nil {
			api.Route("/providers", cfg.ProvidersHandler.Routes)
		}
		if cfg.PhoneHandler != nil {
			api.Post("/phone/validate", cfg.PhoneHandler.ValidatePhone)
			api.Post("/phone/validate/batch", cfg.PhoneHandler.ValidateBatch)
		}
		if cfg.AnalyticsHandler != nil {
			api.Route("/analytics", cfg.AnalyticsHandler.Routes)
		}
	})

	// Admin endpoints, JWT protected.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

		if cfg.PhoneHandler != nil {
			admin.Get("/phone/cache/stats", cfg.PhoneHandler.CacheStats)
			admin.Delete("/phone/cache", cfg.PhoneHandler.ClearCache)
		}
	})

	return r
}
