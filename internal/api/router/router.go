package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/voicebridge/lead-marketplace/internal/http/middleware"
	"github.com/voicebridge/lead-marketplace/internal/marketplace"
	"github.com/voicebridge/lead-marketplace/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Marketplace        *marketplace.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
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

	r.Get("/health", cfg.Marketplace.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/leads", func(r chi.Router) {
		r.Post("/", cfg.Marketplace.CaptureLead)
		r.Get("/", cfg.Marketplace.BrowseLeads)
		r.Post("/{leadID}/purchase", cfg.Marketplace.PurchaseLead)
	})
	r.Route("/purchases", func(r chi.Router) {
		r.Post("/{purchaseID}/track", cfg.Marketplace.TrackConversion)
	})
	r.Get("/analytics", cfg.Marketplace.Analytics)

	return r
}
