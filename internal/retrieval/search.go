package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SearchConfig describes how to reach the hybrid-search service.
type SearchConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Citation locates the source document of a search result.
type Citation struct {
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
	Page  int    `json:"page,omitempty"`
}

// SearchResult is one ranked hit from the hybrid-search service.
type SearchResult struct {
	Content  string    `json:"content"`
	Score    float64   `json:"score"`
	Citation *Citation `json:"citation,omitempty"`
}

// SearchResponse is the hybrid-search service's answer for one query.
type SearchResponse struct {
	Results   []SearchResult `json:"results"`
	Entities  []string       `json:"entities,omitempty"`
	LatencyMS int64          `json:"latency_ms,omitempty"`
}

// Searcher is the retrieval hook's view of the hybrid-search service.
type Searcher interface {
	Search(ctx context.Context, dealID, query string) (*SearchResponse, error)
}

// HybridSearchClient reaches the knowledge-graph hybrid-search service over
// HTTP. The backend combines keyword and semantic retrieval; its ranking is
// opaque to this client.
type HybridSearchClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHybridSearchClient validates the configuration and returns a
// ready-to-use client.
func NewHybridSearchClient(cfg SearchConfig) (*HybridSearchClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("retrieval: search base URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HybridSearchClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Search issues one hybrid-search query scoped to a deal.
func (c *HybridSearchClient) Search(ctx context.Context, dealID, query string) (*SearchResponse, error) {
	if strings.TrimSpace(dealID) == "" {
		return nil, errors.New("retrieval: deal id required")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("retrieval: query required")
	}

	payload := map[string]any{
		"deal_id": dealID,
		"query":   query,
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/v1/search/hybrid", payload)
	if err != nil {
		return nil, err
	}

	var out SearchResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("retrieval: decode search response failed: %w", err)
	}
	return &out, nil
}

func (c *HybridSearchClient) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("retrieval: failed to encode payload: %w", err)
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("retrieval: request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval: search request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("retrieval: read response failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("retrieval: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}
