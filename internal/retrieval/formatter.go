package retrieval

import (
	"fmt"
	"strings"
)

// charsPerToken is the fixed, conservative characters-per-token ratio used
// for budget enforcement. Estimates round up so the formatted block can never
// slip past the budget by under-counting.
const charsPerToken = 4

// estimateTokens returns a ceiling estimate of the token count of s.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// FormatContext turns ranked search results (pre-sorted by descending
// relevance) into a citation-annotated text block bounded by tokenBudget.
// Appending stops before the first result that would push the estimate over
// the budget. An empty result list yields ("", 0), never an error.
func FormatContext(results []SearchResult, tokenBudget int) (string, int) {
	if len(results) == 0 || tokenBudget <= 0 {
		return "", 0
	}

	var b strings.Builder
	for _, result := range results {
		line := strings.TrimSpace(result.Content) + " " + citationSuffix(result.Citation)
		candidate := line
		if b.Len() > 0 {
			candidate = b.String() + "\n\n" + line
		}
		if estimateTokens(candidate) > tokenBudget {
			break
		}
		b.Reset()
		b.WriteString(candidate)
	}

	text := b.String()
	return text, estimateTokens(text)
}

func citationSuffix(citation *Citation) string {
	if citation == nil || strings.TrimSpace(citation.Title) == "" {
		return "[Source: Unknown]"
	}
	if citation.Page > 0 {
		return fmt.Sprintf("[Source: %s, p%d]", citation.Title, citation.Page)
	}
	return fmt.Sprintf("[Source: %s]", citation.Title)
}
