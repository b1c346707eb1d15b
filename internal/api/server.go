package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/jhigh13/podium-data/internal/api/handler"
	"github.com/jhigh13/podium-data/internal/auth"
	"github.com/jhigh13/podium-data/internal/cache"
	"github.com/jhigh13/podium-data/internal/config"
	"github.com/jhigh13/podium-data/internal/runner"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *pgxpool.Pool, appCache *cache.Cache, cfg *config.Config, sched *runner.Scheduler, oauth *auth.OAuthClient, creds auth.CredentialStore) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, appCache, cfg, sched, oauth, creds)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Athletes
		r.Get("/athletes", h.ListAthletes)
		r.Get("/athletes/{athleteID}", h.GetAthlete)
		r.Get("/athletes/{athleteID}/baselines", h.GetBaselines)
		r.Get("/athletes/{athleteID}/alerts", h.GetAlerts)

		// Alerts
		r.Post("/alerts/{alertID}/ack", h.AcknowledgeAlert)

		// Pipeline
		r.Post("/run", h.TriggerRun)

		// Account linking
		r.Get("/auth/url", h.AuthorizationURL)
		r.Post("/auth/exchange", h.ExchangeCode)
	})

	return r
}
