package explain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disputekit/disputekit/internal/common"
	"github.com/disputekit/disputekit/internal/llm"
	"github.com/disputekit/disputekit/internal/model"
)

// mockClient returns canned responses, failing the first failUntil calls.
type mockClient struct {
	mu        sync.Mutex
	calls     int
	failUntil int
	response  string
}

func (m *mockClient) Generate(_ context.Context, _ llm.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failUntil {
		return "", fmt.Errorf("service unavailable")
	}
	return m.response, nil
}

func fastConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
}

func TestExplainSuccess(t *testing.T) {
	client := &mockClient{response: "The customer reports being billed twice for one purchase."}
	generator := NewGenerator(client, fastConfig(), slog.Default())

	result, err := generator.Explain(context.Background(), "I was charged twice", model.CategoryDuplicateCharge)
	require.NoError(t, err)

	assert.Equal(t, client.response, result.Explanation)
	assert.Equal(t, "Auto-refund", result.SuggestedAction)
	assert.Equal(t, client.response, result.Justification)
	assert.False(t, result.Degraded)
	assert.Equal(t, 2, client.calls)
}

func TestExplainActionsFollowCategory(t *testing.T) {
	tests := []struct {
		category model.Category
		action   string
	}{
		{model.CategoryDuplicateCharge, "Auto-refund"},
		{model.CategoryFailedTransaction, "Manual review"},
		{model.CategoryFraud, "Mark as potential fraud"},
		{model.CategoryOthers, "Manual review"},
		{model.CategoryRefundPending, "Ask for more info"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			client := &mockClient{response: "generated text"}
			generator := NewGenerator(client, fastConfig(), slog.Default())

			result, err := generator.Explain(context.Background(), "some dispute", tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.action, result.SuggestedAction)
		})
	}
}

func TestExplainRetriesTransientFailure(t *testing.T) {
	client := &mockClient{failUntil: 1, response: "recovered"}
	generator := NewGenerator(client, fastConfig(), slog.Default())

	result, err := generator.Explain(context.Background(), "my card was charged twice", model.CategoryDuplicateCharge)
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Explanation)
	assert.False(t, result.Degraded)
	// One failed attempt, then explanation and justification succeed.
	assert.Equal(t, 3, client.calls)
}

func TestExplainExhaustedRetriesWithoutFallback(t *testing.T) {
	client := &mockClient{failUntil: 100}
	generator := NewGenerator(client, fastConfig(), slog.Default())

	_, err := generator.Explain(context.Background(), "my card was charged twice", model.CategoryFraud)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExplanationUnavailable)
	assert.Equal(t, 3, client.calls)
}

func TestExplainFallbackDegrades(t *testing.T) {
	client := &mockClient{failUntil: 100}
	cfg := fastConfig()
	cfg.FallbackEnabled = true
	generator := NewGenerator(client, cfg, slog.Default())

	result, err := generator.Explain(context.Background(), "someone used my card", model.CategoryFraud)
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, "Classified as FRAUD based on semantic analysis.", result.Explanation)
	assert.Equal(t, "Mark as potential fraud", result.SuggestedAction)
	assert.Equal(t, model.CategoryFraud.Meta().FallbackJustification, result.Justification)
}

func TestExplainJustificationFailureIsNotPartial(t *testing.T) {
	// The explanation call succeeds but the justification call never does;
	// the caller must get all fallback text, not a mix.
	client := &mockClient{failUntil: 0, response: "fine"}
	failing := &justificationFailClient{inner: client}
	cfg := fastConfig()
	cfg.FallbackEnabled = true
	generator := NewGenerator(failing, cfg, slog.Default())

	result, err := generator.Explain(context.Background(), "still waiting for my refund", model.CategoryRefundPending)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, "Classified as REFUND_PENDING based on semantic analysis.", result.Explanation)
	assert.Equal(t, model.CategoryRefundPending.Meta().FallbackJustification, result.Justification)
}

// justificationFailClient passes the first call through and fails the rest.
type justificationFailClient struct {
	mu    sync.Mutex
	inner llm.Client
	calls int
}

func (c *justificationFailClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()
	if n > 1 {
		return "", fmt.Errorf("service unavailable")
	}
	return c.inner.Generate(ctx, req)
}

func TestExplainValidatesInput(t *testing.T) {
	generator := NewGenerator(&mockClient{response: "x"}, fastConfig(), slog.Default())

	_, err := generator.Explain(context.Background(), "", model.CategoryFraud)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = generator.Explain(context.Background(), "text", model.Category("BOGUS"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestExplainEmptyResponseRetries(t *testing.T) {
	client := &emptyThenOKClient{}
	generator := NewGenerator(client, fastConfig(), slog.Default())

	result, err := generator.Explain(context.Background(), "charged twice", model.CategoryDuplicateCharge)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Explanation)
}

type emptyThenOKClient struct {
	mu    sync.Mutex
	calls int
}

func (c *emptyThenOKClient) Generate(_ context.Context, _ llm.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls == 1 {
		return "", nil
	}
	return "eventually fine", nil
}
