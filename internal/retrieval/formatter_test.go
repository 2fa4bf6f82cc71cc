package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatContextEmpty(t *testing.T) {
	text, tokens := FormatContext(nil, 1000)
	assert.Equal(t, "", text)
	assert.Equal(t, 0, tokens)

	text, tokens = FormatContext([]SearchResult{}, 1000)
	assert.Equal(t, "", text)
	assert.Equal(t, 0, tokens)
}

func TestFormatContextCitations(t *testing.T) {
	results := []SearchResult{
		{
			Content:  "Q3 revenue was $12.4M, up 18% year over year.",
			Score:    0.92,
			Citation: &Citation{Type: "document", Title: "Q3 Financial Review", Page: 4},
		},
		{
			Content:  "The top customer accounts for 31% of revenue.",
			Score:    0.81,
			Citation: &Citation{Type: "document", Title: "Customer Concentration Memo"},
		},
		{
			Content: "Churn has been below 2% for six quarters.",
			Score:   0.75,
		},
	}

	text, tokens := FormatContext(results, 1000)
	require.NotEmpty(t, text)
	assert.Contains(t, text, "[Source: Q3 Financial Review, p4]")
	assert.Contains(t, text, "[Source: Customer Concentration Memo]")
	assert.Contains(t, text, "[Source: Unknown]")
	assert.LessOrEqual(t, tokens, 1000)
}

func TestFormatContextBudgetBound(t *testing.T) {
	long := strings.Repeat("margin analysis detail ", 40)
	results := []SearchResult{
		{Content: long, Score: 0.9},
		{Content: long, Score: 0.8},
		{Content: long, Score: 0.7},
		{Content: long, Score: 0.6},
	}

	for _, budget := range []int{50, 120, 300, 500} {
		text, tokens := FormatContext(results, budget)
		assert.LessOrEqualf(t, tokens, budget, "budget %d exceeded", budget)
		assert.Equal(t, estimateTokens(text), tokens)
	}
}

func TestFormatContextStopsAtFirstOverflow(t *testing.T) {
	results := []SearchResult{
		{Content: "short entry", Score: 0.9, Citation: &Citation{Title: "Doc A"}},
		{Content: strings.Repeat("x", 4000), Score: 0.8},
		{Content: "another short entry", Score: 0.7},
	}

	// Budget fits the first result but not the second; appending stops at
	// the overflow rather than skipping past it.
	text, tokens := FormatContext(results, 40)
	assert.Contains(t, text, "short entry")
	assert.NotContains(t, text, "another short entry")
	assert.LessOrEqual(t, tokens, 40)
}

func TestFormatContextBudgetTooSmallForAnything(t *testing.T) {
	results := []SearchResult{
		{Content: strings.Repeat("y", 400), Score: 0.9},
	}
	text, tokens := FormatContext(results, 10)
	assert.Equal(t, "", text)
	assert.Equal(t, 0, tokens)
}

func TestEstimateTokensCeiling(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("abc"))
	assert.Equal(t, 1, estimateTokens("abcd"))
	assert.Equal(t, 2, estimateTokens("abcde"))
}
