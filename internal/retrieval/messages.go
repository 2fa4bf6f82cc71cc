package retrieval

import "strings"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the conversation message representation consumed and
// produced by the hook. The hook only ever reads the latest user message and
// prepends a single system message; earlier messages are never mutated.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// latestUserText returns the text of the most recent user-role message.
// Returns false when the conversation has no user message or its content is
// empty; the hook treats both as malformed input and skips.
func latestUserText(messages []ChatMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != RoleUser {
			continue
		}
		text := strings.TrimSpace(messages[i].Content)
		if text == "" {
			return "", false
		}
		return text, true
	}
	return "", false
}
