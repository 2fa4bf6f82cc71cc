package retrieval

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dealscope/diligence-ai-platform/pkg/logging"
)

// Handler wires HTTP requests to the retrieval hook.
type Handler struct {
	hook   *RetrievalHook
	cache  *TopicCache
	logger *logging.Logger
}

// NewHandler creates a retrieval handler.
func NewHandler(hook *RetrievalHook, cache *TopicCache, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		hook:   hook,
		cache:  cache,
		logger: logger,
	}
}

// PrepareRequest is the payload for POST /v1/retrieval/prepare.
type PrepareRequest struct {
	DealID   string        `json:"deal_id"`
	Messages []ChatMessage `json:"messages"`
}

// Prepare handles POST /v1/retrieval/prepare. The hook cannot fail, so the
// only error responses are for undecodable or incomplete payloads.
func (h *Handler) Prepare(w http.ResponseWriter, r *http.Request) {
	var req PrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode prepare request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.DealID) == "" {
		http.Error(w, "deal_id is required", http.StatusBadRequest)
		return
	}

	outcome := h.hook.Prepare(r.Context(), req.DealID, req.Messages)
	h.writeJSON(w, http.StatusOK, outcome)
}

// CacheStats handles GET /v1/retrieval/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.cache.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"size":        stats.Size,
		"max_entries": stats.MaxEntries,
		"ttl_ms":      stats.TTL.Milliseconds(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
