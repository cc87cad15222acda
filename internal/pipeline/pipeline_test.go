package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disputekit/disputekit/internal/classify"
	"github.com/disputekit/disputekit/internal/common"
	"github.com/disputekit/disputekit/internal/embed"
	"github.com/disputekit/disputekit/internal/explain"
	"github.com/disputekit/disputekit/internal/llm"
	"github.com/disputekit/disputekit/internal/model"
	"github.com/disputekit/disputekit/internal/reduce"
)

// stubLLM returns fixed text, or an error when set.
type stubLLM struct {
	text string
	err  error
}

func (s *stubLLM) Generate(_ context.Context, _ llm.Request) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

// testVocab covers every token in the test sentences so embeddings are
// exact, with four signal tokens each driving one axis.
func testVocab() map[string][]float64 {
	signal := map[string]int{
		"charged": 0, "twice": 0,
		"failed": 1, "declined": 1,
		"fraud": 2, "unauthorized": 2,
		"refund": 3, "waiting": 3,
	}
	filler := []string{"i", "was", "for", "the", "same", "coffee", "order", "my", "card", "a", "still", "payment"}

	vocab := make(map[string][]float64)
	for token, axis := range signal {
		row := make([]float64, 4)
		row[axis] = 1
		vocab[token] = row
	}
	for _, token := range filler {
		vocab[token] = make([]float64, 4)
	}
	return vocab
}

func testPipeline(t *testing.T, client llm.Client, opts ...Option) *Pipeline {
	t.Helper()

	embedder, err := embed.New(4, testVocab())
	require.NoError(t, err)

	transform, err := reduce.New(
		[]float64{0, 0, 0, 0},
		[][]float64{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, 1},
		},
	)
	require.NoError(t, err)

	classifier, err := classify.New(
		[][]float64{
			{4, 0, 0, 0},
			{0, 4, 0, 0},
			{0, 0, 4, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 4},
		},
		[]float64{0, 0, 0, 0, 0},
	)
	require.NoError(t, err)

	generator := explain.NewGenerator(client, explain.Config{
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}, slog.Default())

	p, err := New(embedder, transform, classifier, generator, slog.Default(), opts...)
	require.NoError(t, err)
	return p
}

func TestClassifyEndToEnd(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	p := testPipeline(t, &stubLLM{text: "generated annotation"},
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string { return "DISP-test-1" }),
	)

	record, err := p.Classify(context.Background(), "I was charged twice for the same coffee order", "C100", "T100")
	require.NoError(t, err)

	assert.Equal(t, "DISP-test-1", record.DisputeID)
	assert.Equal(t, "C100", record.CustomerID)
	assert.Equal(t, "T100", record.TxnID)
	assert.Equal(t, model.CategoryDuplicateCharge, record.PredictedCategory)
	assert.GreaterOrEqual(t, record.Confidence, 0.5)
	assert.Equal(t, "generated annotation", record.Explanation)
	assert.Equal(t, "Auto-refund", record.SuggestedAction)
	assert.Equal(t, "generated annotation", record.Justification)
	assert.Equal(t, model.StatusOpen, record.Status)
	assert.Equal(t, now, record.CreatedAt)
	assert.False(t, record.Degraded)
}

func TestClassifyRoutesCategories(t *testing.T) {
	p := testPipeline(t, &stubLLM{text: "annotation"})

	tests := []struct {
		description string
		want        model.Category
	}{
		{"I was charged twice for the same coffee order", model.CategoryDuplicateCharge},
		{"my payment failed declined", model.CategoryFailedTransaction},
		{"unauthorized fraud card", model.CategoryFraud},
		{"still waiting for my refund", model.CategoryRefundPending},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			record, err := p.Classify(context.Background(), tt.description, "", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, record.PredictedCategory)
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	p := testPipeline(t, &stubLLM{text: "annotation"})

	first, err := p.Classify(context.Background(), "unauthorized fraud card", "", "")
	require.NoError(t, err)
	second, err := p.Classify(context.Background(), "unauthorized fraud card", "", "")
	require.NoError(t, err)

	assert.Equal(t, first.PredictedCategory, second.PredictedCategory)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestClassifyEmptyDescription(t *testing.T) {
	p := testPipeline(t, &stubLLM{text: "annotation"})

	_, err := p.Classify(context.Background(), "   ", "C1", "T1")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestClassifyIsAtomicOnExplainFailure(t *testing.T) {
	p := testPipeline(t, &stubLLM{err: fmt.Errorf("service down")})

	record, err := p.Classify(context.Background(), "I was charged twice for the same coffee order", "C1", "T1")
	require.Error(t, err)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, common.ErrExplanationUnavailable)
}

func TestNewRejectsMismatchedArtifacts(t *testing.T) {
	embedder, err := embed.New(3, nil)
	require.NoError(t, err)

	transform, err := reduce.New([]float64{0, 0, 0, 0}, [][]float64{{1, 0, 0, 0}})
	require.NoError(t, err)

	classifier, err := classify.New(
		[][]float64{{1}, {1}, {1}, {1}, {1}},
		[]float64{0, 0, 0, 0, 0},
	)
	require.NoError(t, err)

	generator := explain.NewGenerator(&stubLLM{text: "x"}, explain.Config{}, slog.Default())

	_, err = New(embedder, transform, classifier, generator, slog.Default())
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
}

func TestNewRequiresAllComponents(t *testing.T) {
	_, err := New(nil, nil, nil, nil, slog.Default())
	assert.ErrorIs(t, err, common.ErrArtifactNotLoaded)
}
