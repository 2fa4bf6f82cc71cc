package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SEARCH_BASE_URL", "")
	t.Setenv("CONTEXT_TOKEN_BUDGET", "")
	t.Setenv("RETRIEVAL_CACHE_TTL", "")
	t.Setenv("RETRIEVAL_CACHE_MAX_ENTRIES", "")
	t.Setenv("RETRIEVAL_LATENCY_TARGET_MS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.ContextTokenBudget != 2000 {
		t.Fatalf("expected default token budget, got %d", cfg.ContextTokenBudget)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected default cache TTL, got %s", cfg.CacheTTL)
	}
	if cfg.CacheMaxEntries != 20 {
		t.Fatalf("expected default cache capacity, got %d", cfg.CacheMaxEntries)
	}
	if cfg.LatencyTargetMs != 500 {
		t.Fatalf("expected default latency target, got %d", cfg.LatencyTargetMs)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Fatalf("expected default embedding model, got %s", cfg.EmbeddingModel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEARCH_BASE_URL", "https://search.internal:8443")
	t.Setenv("SEARCH_API_KEY", "secret")
	t.Setenv("SEARCH_TIMEOUT", "2s")
	t.Setenv("CONTEXT_TOKEN_BUDGET", "1500")
	t.Setenv("RETRIEVAL_CACHE_TTL", "90s")
	t.Setenv("RETRIEVAL_CACHE_MAX_ENTRIES", "50")
	t.Setenv("RETRIEVAL_LATENCY_TARGET_MS", "750")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.SearchBaseURL != "https://search.internal:8443" {
		t.Fatalf("expected search base URL override, got %s", cfg.SearchBaseURL)
	}
	if cfg.SearchTimeout != 2*time.Second {
		t.Fatalf("expected search timeout override, got %s", cfg.SearchTimeout)
	}
	if cfg.ContextTokenBudget != 1500 {
		t.Fatalf("expected token budget override, got %d", cfg.ContextTokenBudget)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("expected cache TTL override, got %s", cfg.CacheTTL)
	}
	if cfg.CacheMaxEntries != 50 {
		t.Fatalf("expected cache capacity override, got %d", cfg.CacheMaxEntries)
	}
	if cfg.LatencyTargetMs != 750 {
		t.Fatalf("expected latency target override, got %d", cfg.LatencyTargetMs)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RETRIEVAL_CACHE_TTL", "soon")
	t.Setenv("RETRIEVAL_CACHE_MAX_ENTRIES", "many")
	cfg := Load()
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected malformed TTL to fall back to default, got %s", cfg.CacheTTL)
	}
	if cfg.CacheMaxEntries != 20 {
		t.Fatalf("expected malformed capacity to fall back to default, got %d", cfg.CacheMaxEntries)
	}
}
