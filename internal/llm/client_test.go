package llm

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

func TestNewClientProviders(t *testing.T) {
	client, err := NewClient(Config{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, client)

	client, err = NewClient(Config{Provider: "Anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = NewClient(Config{Provider: "telepathy"})
	assert.Error(t, err)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewClient(Config{Provider: "anthropic"})
	assert.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		messages, ok := body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)
		system := messages[0].(map[string]any)
		assert.Equal(t, "system", system["role"])
		assert.Equal(t, "be brief", system["content"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  the answer  "}},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), Request{
		System:      "be brief",
		Prompt:      "explain",
		Temperature: 0.0,
		MaxTokens:   70,
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", text)
}

func TestOpenAIGenerateRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenAIGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), Request{Prompt: "x"})
	assert.Error(t, err)
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion choices")
}

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-3-5-haiku-20241022", body["model"])
		assert.Equal(t, "be brief", body["system"])
		assert.Equal(t, float64(80), body["max_tokens"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "the answer"}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{Provider: "anthropic", APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), Request{
		System:    "be brief",
		Prompt:    "explain",
		MaxTokens: 80,
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", text)
}

func TestAnthropicGenerateEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Provider: "anthropic", APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestCleanMarkdownWrapper(t *testing.T) {
	assert.Equal(t, "plain text", cleanMarkdownWrapper("  plain text  "))
	assert.Equal(t, "the answer", cleanMarkdownWrapper("```\nthe answer\n```"))
	assert.Equal(t, "the answer", cleanMarkdownWrapper("```text\nthe answer\n```"))
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	limiter := NewRateLimiter(60)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
}

func TestRateLimiterBlocksWhenExhausted(t *testing.T) {
	limiter := NewRateLimiter(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, limiter.Wait(ctx))

	// The single token is spent; at one request per minute the next Wait
	// cannot succeed before the context deadline.
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer shortCancel()
	err := limiter.Wait(shortCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterDefaultsOnBadInput(t *testing.T) {
	limiter := NewRateLimiter(0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, limiter.Wait(ctx))
}
