package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mrwolf/journal-server/internal/analysis"
	"github.com/mrwolf/journal-server/internal/config"
	"github.com/mrwolf/journal-server/internal/db"
	"github.com/mrwolf/journal-server/internal/llm"
)

// NewRouter wires the HTTP API. reflections may be nil, in which case
// on-demand reflection generation answers 503.
func NewRouter(cfg *config.Config, database *db.DB, analyzer *analysis.Analyzer, llmClient *llm.Client, reflections ReflectionGenerator, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))

	handlers := NewHandlers(cfg, database, analyzer, llmClient, logger)
	if reflections != nil {
		handlers.SetReflectionGenerator(reflections)
	}
	limiter := NewRateLimiter(cfg.RateLimit, time.Minute)

	// Public endpoints
	r.Get("/health", handlers.Health)

	// API v1 routes (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg))
		r.Use(RateLimitMiddleware(limiter))
		r.Use(JSONContentType)

		r.Route("/journal", func(r chi.Router) {
			r.Post("/", handlers.CreateEntry)
			r.Get("/", handlers.ListEntries)
			r.Get("/stats", handlers.Stats)
			r.Get("/export", handlers.Export)
			r.Get("/{id}", handlers.GetEntry)
			r.Put("/{id}", handlers.UpdateEntry)
			r.Delete("/{id}", handlers.DeleteEntry)
		})

		r.Post("/analyze", handlers.Analyze)
		r.Get("/reflections", handlers.Reflections)
		r.Post("/reflections/generate", handlers.GenerateReflection)
	})

	return r
}
