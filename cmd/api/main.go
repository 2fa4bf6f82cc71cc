package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/dealscope/diligence-ai-platform/internal/api/router"
	appconfig "github.com/dealscope/diligence-ai-platform/internal/config"
	"github.com/dealscope/diligence-ai-platform/internal/observability/metrics"
	"github.com/dealscope/diligence-ai-platform/internal/retrieval"
	"github.com/dealscope/diligence-ai-platform/pkg/logging"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting diligence-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	registry := prometheus.NewRegistry()
	retrievalMetrics := metrics.NewRetrievalMetrics(registry)

	searchClient, err := retrieval.NewHybridSearchClient(retrieval.SearchConfig{
		BaseURL: cfg.SearchBaseURL,
		APIKey:  cfg.SearchAPIKey,
		Timeout: cfg.SearchTimeout,
	})
	if err != nil {
		logger.Error("failed to configure hybrid search client", "error", err)
		os.Exit(1)
	}

	// Semantic classification upgrades to embeddings when a provider key is
	// configured; the chain falls back to patterns on any provider failure.
	var classifier retrieval.Classifier = retrieval.PatternClassifier{}
	if cfg.OpenAIAPIKey != "" {
		semantic := retrieval.NewSemanticClassifier(
			openai.NewClient(cfg.OpenAIAPIKey),
			cfg.EmbeddingModel,
			logger,
		)
		classifier = retrieval.ChainClassifier{
			Primary:  semantic,
			Fallback: retrieval.PatternClassifier{},
		}
	}

	// One cache instance shared across all in-flight turns.
	cache := retrieval.NewTopicCache(cfg.CacheTTL, cfg.CacheMaxEntries)

	hook := retrieval.NewRetrievalHook(classifier, cache, searchClient, retrieval.HookConfig{
		TokenBudget:   cfg.ContextTokenBudget,
		LatencyTarget: time.Duration(cfg.LatencyTargetMs) * time.Millisecond,
	}, retrievalMetrics, logger)

	retrievalHandler := retrieval.NewHandler(hook, cache, logger)

	r := router.New(&router.Config{
		Logger:           logger,
		RetrievalHandler: retrievalHandler,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		PrepareRateLimit: cfg.PrepareRateLimit,
		PrepareBurst:     cfg.PrepareBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
