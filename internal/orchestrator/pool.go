package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/econindex/classifier/internal/models"
)

// BatchResult pairs one indicator's outcome with its descriptor ID.
type BatchResult struct {
	IndicatorID string
	Record      *models.ClassificationRecord
	State       State
	Err         error
}

// RunBatch drives descriptors through RunIndicator concurrently, bounded
// by Options.MaxConcurrentIndicators. One indicator's failure never
// cancels the others — the batch always returns exactly one BatchResult
// per input, in input order.
func (o *Orchestrator) RunBatch(ctx context.Context, descriptors []models.IndicatorDescriptor, force bool) []BatchResult {
	results := make([]BatchResult, len(descriptors))
	sem := semaphore.NewWeighted(int64(o.opts.MaxConcurrentIndicators))
	g, gctx := errgroup.WithContext(ctx)

	for i, d := range descriptors {
		i, d := i, d
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results[i] = BatchResult{IndicatorID: d.ID, State: StateFailed, Err: err}
				return nil
			}
			defer sem.Release(1)

			record, state, err := o.RunIndicator(gctx, d, force)
			results[i] = BatchResult{IndicatorID: d.ID, Record: record, State: state, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
