package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHybridSearchClientRequiresBaseURL(t *testing.T) {
	_, err := NewHybridSearchClient(SearchConfig{})
	require.Error(t, err)

	_, err = NewHybridSearchClient(SearchConfig{BaseURL: "   "})
	require.Error(t, err)
}

func TestHybridSearchClientSearch(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(SearchResponse{
			Results: []SearchResult{
				{Content: "Q3 revenue was $12.4M", Score: 0.91, Citation: &Citation{Title: "Q3 Review", Page: 2}},
			},
			Entities:  []string{"Q3", "revenue"},
			LatencyMS: 42,
		})
	}))
	defer server.Close()

	client, err := NewHybridSearchClient(SearchConfig{BaseURL: server.URL + "/", APIKey: "test-key"})
	require.NoError(t, err)

	resp, err := client.Search(context.Background(), "deal-1", "Q3 revenue")
	require.NoError(t, err)

	assert.Equal(t, "/v1/search/hybrid", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "deal-1", gotBody["deal_id"])
	assert.Equal(t, "Q3 revenue", gotBody["query"])

	require.Len(t, resp.Results, 1)
	assert.Equal(t, 0.91, resp.Results[0].Score)
	require.NotNil(t, resp.Results[0].Citation)
	assert.Equal(t, 2, resp.Results[0].Citation.Page)
	assert.Equal(t, []string{"Q3", "revenue"}, resp.Entities)
	assert.Equal(t, int64(42), resp.LatencyMS)
}

func TestHybridSearchClientNoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client, err := NewHybridSearchClient(SearchConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "deal-1", "anything")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestHybridSearchClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index rebuilding", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewHybridSearchClient(SearchConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "deal-1", "Q3 revenue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "index rebuilding")
}

func TestHybridSearchClientMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, err := NewHybridSearchClient(SearchConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "deal-1", "Q3 revenue")
	require.Error(t, err)
}

func TestHybridSearchClientValidatesInput(t *testing.T) {
	client, err := NewHybridSearchClient(SearchConfig{BaseURL: "http://search.internal"})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "", "query")
	require.Error(t, err)

	_, err = client.Search(context.Background(), "deal-1", " ")
	require.Error(t, err)
}

func TestHybridSearchClientHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client, err := NewHybridSearchClient(SearchConfig{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Search(ctx, "deal-1", "Q3 revenue")
	require.Error(t, err)
}
