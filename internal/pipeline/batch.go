package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/disputekit/disputekit/internal/model"
	"github.com/disputekit/disputekit/internal/service"
)

// DefaultBatchWorkers bounds how many classifications, and therefore how
// many outbound generative-service calls, run at once.
const DefaultBatchWorkers = 10

// BatchResult pairs one input with its outcome.
type BatchResult struct {
	Record *model.DisputeRecord
	Err    error
	Input  service.ClassifyInput
}

// ClassifyBatch classifies many disputes concurrently with bounded
// parallelism. Results keep input order. Individual failures do not abort
// the batch; each result carries its own error. The optional progress
// callback fires once per completed input.
func (p *Pipeline) ClassifyBatch(ctx context.Context, inputs []service.ClassifyInput, workers int, progress func()) ([]BatchResult, service.CompletionStats) {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	start := time.Now()
	results := make([]BatchResult, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for i, input := range inputs {
		g.Go(func() error {
			record, err := p.Classify(ctx, input.Description, input.CustomerID, input.TxnID)
			if record != nil {
				if input.DisputeID != "" {
					record.DisputeID = input.DisputeID
				}
				if !input.CreatedAt.IsZero() {
					record.CreatedAt = input.CreatedAt
				}
			}
			results[i] = BatchResult{Input: input, Record: record, Err: err}
			if progress != nil {
				mu.Lock()
				progress()
				mu.Unlock()
			}
			return nil
		})
	}
	// Workers never return errors; the group is used for its limit and
	// context plumbing only.
	_ = g.Wait()

	stats := service.CompletionStats{
		Total:    len(inputs),
		Duration: time.Since(start),
	}
	for _, r := range results {
		switch {
		case r.Err != nil:
			stats.Failed++
		case r.Record.Degraded:
			stats.Classified++
			stats.Degraded++
		default:
			stats.Classified++
		}
	}

	return results, stats
}
