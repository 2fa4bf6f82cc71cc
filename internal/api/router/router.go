package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/dealscope/diligence-ai-platform/internal/http/middleware"
	"github.com/dealscope/diligence-ai-platform/internal/retrieval"
	"github.com/dealscope/diligence-ai-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	RetrievalHandler *retrieval.Handler
	MetricsHandler   http.Handler

	// PrepareRateLimit caps prepare calls per second per caller IP.
	// Zero disables rate limiting.
	PrepareRateLimit float64
	PrepareBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.RetrievalHandler != nil {
		r.Route("/v1/retrieval", func(r chi.Router) {
			if cfg.PrepareRateLimit > 0 {
				r.Use(httpmiddleware.RateLimit(cfg.PrepareRateLimit, cfg.PrepareBurst))
			}
			r.Post("/prepare", cfg.RetrievalHandler.Prepare)
			r.Get("/cache/stats", cfg.RetrievalHandler.CacheStats)
		})
	}

	return r
}
