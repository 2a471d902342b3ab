package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/hybrid-summarizer/app"
	"github.com/upb/hybrid-summarizer/handlers"
	appmw "github.com/upb/hybrid-summarizer/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmw.NewRequestLogger(deps.Logger.Named("http")).Handler)
	r.Use(middleware.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	summaries := handlers.NewSummaryHandler(deps.SummaryService, deps.Logger.Named("summary_handler"))
	health := handlers.NewHealthHandler(deps.DatabaseChecker(), deps.RemoteName(), deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	summaryRoutes := func(r chi.Router) {
		r.Post("/summarize", summaries.HandleSummarize)
		r.Get("/history", summaries.HandleHistory)
		r.Get("/history/{id}", summaries.HandleGetSummary)
	}

	// Unversioned paths kept for existing clients
	r.Group(summaryRoutes)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", handlers.StatusHandler(handlers.StatusInfo{
			Version:        app.Version,
			Environment:    cfg.Environment,
			Remote:         deps.RemoteName(),
			Providers:      deps.ProviderRegistry.ListProviders(),
			Threshold:      deps.Policy.Config().Threshold,
			Metric:         string(deps.Policy.Config().Metric),
			HistoryEnabled: deps.SummaryService.HistoryEnabled(),
		}))
		summaryRoutes(r)
	})

	return r
}
