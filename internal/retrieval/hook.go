package retrieval

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dealscope/diligence-ai-platform/internal/observability/metrics"
	"github.com/dealscope/diligence-ai-platform/pkg/logging"
)

var hookTracer = otel.Tracer("dealscope/retrieval-hook")

// knowledgePreamble prefixes every injected context block.
const knowledgePreamble = "Relevant knowledge from the deal's knowledge graph:\n\n"

// minSearchTimeout floors the outbound search deadline so an aggressive
// latency target cannot starve the call entirely.
const minSearchTimeout = 250 * time.Millisecond

// Outcome is the hook's result for one chat turn, consumed by the
// model-invocation pipeline.
type Outcome struct {
	TurnID             string        `json:"turn_id"`
	Skipped            bool          `json:"skipped"`
	Intent             IntentType    `json:"intent"`
	Messages           []ChatMessage `json:"messages"`
	CacheHit           bool          `json:"cache_hit"`
	RetrievalLatencyMs int64         `json:"retrieval_latency_ms"`
}

// HookConfig tunes the retrieval hook.
type HookConfig struct {
	// TokenBudget caps the estimated size of injected context.
	TokenBudget int
	// LatencyTarget bounds the outbound search call and is compared against
	// measured latency for telemetry. Zero means the 500ms default.
	LatencyTarget time.Duration
}

// RetrievalHook decides, ahead of each model turn, whether to fetch
// knowledge-graph context for the latest user message and injects it as a
// leading system message. Its public entry point never fails: every error is
// absorbed and degrades to returning the conversation exactly as received.
type RetrievalHook struct {
	classifier    Classifier
	cache         *TopicCache
	search        Searcher
	tokenBudget   int
	latencyTarget time.Duration
	metrics       *metrics.RetrievalMetrics
	logger        *logging.Logger
}

// NewRetrievalHook wires the hook's collaborators. The cache is injected so
// the application owns a single shared instance and tests can use isolated
// ones.
func NewRetrievalHook(classifier Classifier, cache *TopicCache, search Searcher, cfg HookConfig, m *metrics.RetrievalMetrics, logger *logging.Logger) *RetrievalHook {
	if classifier == nil {
		panic("retrieval: classifier cannot be nil")
	}
	if cache == nil {
		panic("retrieval: cache cannot be nil")
	}
	if search == nil {
		panic("retrieval: searcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = 2000
	}
	if cfg.LatencyTarget <= 0 {
		cfg.LatencyTarget = 500 * time.Millisecond
	}
	return &RetrievalHook{
		classifier:    classifier,
		cache:         cache,
		search:        search,
		tokenBudget:   cfg.TokenBudget,
		latencyTarget: cfg.LatencyTarget,
		metrics:       m,
		logger:        logger,
	}
}

// Prepare runs the pre-model retrieval decision for one chat turn. It never
// returns an error and never mutates the given messages; on any failure the
// outcome carries them back unchanged.
func (h *RetrievalHook) Prepare(ctx context.Context, dealID string, messages []ChatMessage) (outcome Outcome) {
	start := time.Now()
	turnID := uuid.NewString()
	log := h.logger.With("turn_id", turnID, "deal_id", dealID)

	ctx, span := hookTracer.Start(ctx, "retrieval.prepare")
	defer span.End()

	outcome = Outcome{
		TurnID:   turnID,
		Skipped:  true,
		Intent:   IntentFactual,
		Messages: messages,
	}

	// The turn must survive anything the pipeline does.
	defer func() {
		if r := recover(); r != nil {
			log.Error("retrieval hook panic recovered", "panic", r)
			outcome = Outcome{
				TurnID:             turnID,
				Skipped:            false,
				Intent:             outcome.Intent,
				Messages:           messages,
				RetrievalLatencyMs: time.Since(start).Milliseconds(),
			}
		}
	}()

	query, ok := latestUserText(messages)
	if !ok {
		// Malformed input must never block the turn.
		log.Debug("no classifiable user message, skipping retrieval")
		h.metrics.ObserveTurn("skipped_malformed", string(outcome.Intent), 0)
		return outcome
	}

	result, err := h.classifier.Classify(ctx, query)
	if err != nil {
		// The chain should have absorbed this; degrade to pure patterns.
		result = ClassifyIntentWithComplexity(query)
	}
	outcome.Intent = result.Intent
	span.SetAttributes(TraceAttributes(result)...)

	if !ShouldRetrieve(result.Intent, result.Complexity) {
		outcome.RetrievalLatencyMs = time.Since(start).Milliseconds()
		log.Debug("retrieval skipped by classification",
			"intent", result.Intent,
			"complexity", result.Complexity,
		)
		h.metrics.ObserveTurn("skipped", string(result.Intent), time.Since(start).Seconds())
		return outcome
	}
	outcome.Skipped = false

	key := GenerateKey(query, dealID)
	if entry, hit := h.cache.Get(key); hit {
		h.metrics.ObserveCacheLookup(true)
		outcome.CacheHit = true
		outcome.Messages = injectContext(messages, entry.Context)
		outcome.RetrievalLatencyMs = time.Since(start).Milliseconds()
		span.SetAttributes(attribute.Bool("retrieval.cache_hit", true))
		log.Info("retrieval served from cache",
			"intent", result.Intent,
			"latency_ms", outcome.RetrievalLatencyMs,
		)
		h.metrics.ObserveTurn("cache_hit", string(result.Intent), time.Since(start).Seconds())
		return outcome
	}
	h.metrics.ObserveCacheLookup(false)

	searchCtx, cancel := context.WithTimeout(ctx, h.searchTimeout())
	defer cancel()

	resp, err := h.search.Search(searchCtx, dealID, query)
	if err != nil || resp == nil || len(resp.Results) == 0 {
		reason := "empty_results"
		if err != nil {
			reason = "transport"
			log.Warn("hybrid search failed, continuing without context", "error", err)
		} else {
			log.Debug("hybrid search returned no results")
		}
		h.metrics.ObserveSearchFailure(reason)
		outcome.Messages = messages
		outcome.RetrievalLatencyMs = time.Since(start).Milliseconds()
		h.metrics.ObserveTurn("search_failed", string(result.Intent), time.Since(start).Seconds())
		return outcome
	}

	contextText, tokens := FormatContext(resp.Results, h.tokenBudget)
	if contextText == "" {
		outcome.Messages = messages
		outcome.RetrievalLatencyMs = time.Since(start).Milliseconds()
		h.metrics.ObserveTurn("search_failed", string(result.Intent), time.Since(start).Seconds())
		return outcome
	}

	h.cache.Set(key, CacheEntry{
		Context:   contextText,
		Entities:  resp.Entities,
		CreatedAt: time.Now(),
	})

	outcome.Messages = injectContext(messages, contextText)
	outcome.RetrievalLatencyMs = time.Since(start).Milliseconds()
	h.metrics.ObserveInjectedTokens(tokens)
	h.metrics.ObserveTurn("formatted", string(result.Intent), time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Bool("retrieval.cache_hit", false),
		attribute.Int("retrieval.result_count", len(resp.Results)),
		attribute.Int("retrieval.injected_tokens", tokens),
		attribute.Int64("retrieval.backend_latency_ms", resp.LatencyMS),
	)

	if exceeded := outcome.RetrievalLatencyMs > h.latencyTarget.Milliseconds(); exceeded {
		log.Warn("retrieval exceeded latency target",
			"latency_ms", outcome.RetrievalLatencyMs,
			"target_ms", h.latencyTarget.Milliseconds(),
		)
	} else {
		log.Info("retrieval context injected",
			"intent", result.Intent,
			"results", len(resp.Results),
			"tokens", tokens,
			"latency_ms", outcome.RetrievalLatencyMs,
		)
	}
	return outcome
}

// searchTimeout derives the outbound deadline from the latency target. The
// target started as advisory telemetry; it is promoted to a real deadline so
// a slow backend degrades like any other failure instead of stalling the turn.
func (h *RetrievalHook) searchTimeout() time.Duration {
	if h.latencyTarget < minSearchTimeout {
		return minSearchTimeout
	}
	return h.latencyTarget
}

// injectContext prepends a system message carrying the retrieved context.
// The original slice is never modified.
func injectContext(messages []ChatMessage, contextText string) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages)+1)
	out = append(out, ChatMessage{
		Role:    RoleSystem,
		Content: knowledgePreamble + contextText,
	})
	return append(out, messages...)
}
