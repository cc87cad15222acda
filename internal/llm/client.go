// Package llm provides clients for generative language services. It supports
// OpenAI and Anthropic chat APIs behind one Client interface, with request
// timeouts and token-bucket rate limiting.
package llm

import (
	"context"
	"strings"
	"time"
)

// Client is a generative language service: one prompt in, free-form text out.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request describes one generation call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// cleanMarkdownWrapper strips code-fence wrappers some models add around
// plain-text answers.
func cleanMarkdownWrapper(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// Config holds configuration for an LLM client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}
