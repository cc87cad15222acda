package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disputekit/disputekit/internal/model"
	"github.com/disputekit/disputekit/internal/service"
)

func TestClassifyBatch(t *testing.T) {
	p := testPipeline(t, &stubLLM{text: "annotation"})

	created := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	inputs := []service.ClassifyInput{
		{DisputeID: "D001", Description: "I was charged twice for the same coffee order", CreatedAt: created},
		{DisputeID: "D002", Description: "my payment failed declined"},
		{DisputeID: "D003", Description: ""},
		{DisputeID: "D004", Description: "unauthorized fraud card"},
	}

	var progressed atomic.Int64
	results, stats := p.ClassifyBatch(context.Background(), inputs, 2, func() {
		progressed.Add(1)
	})

	require.Len(t, results, 4)
	assert.Equal(t, int64(4), progressed.Load())

	// Results keep input order and carry the caller's IDs.
	assert.Equal(t, "D001", results[0].Record.DisputeID)
	assert.Equal(t, created, results[0].Record.CreatedAt)
	assert.Equal(t, model.CategoryDuplicateCharge, results[0].Record.PredictedCategory)

	assert.Equal(t, "D002", results[1].Record.DisputeID)
	assert.Equal(t, model.CategoryFailedTransaction, results[1].Record.PredictedCategory)

	require.Error(t, results[2].Err)
	assert.Nil(t, results[2].Record)

	assert.Equal(t, "D004", results[3].Record.DisputeID)
	assert.Equal(t, model.CategoryFraud, results[3].Record.PredictedCategory)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Classified)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Degraded)
}

func TestClassifyBatchEmpty(t *testing.T) {
	p := testPipeline(t, &stubLLM{text: "annotation"})

	results, stats := p.ClassifyBatch(context.Background(), nil, 0, nil)
	assert.Empty(t, results)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.Classified)
}
