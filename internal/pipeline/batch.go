package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult pairs a run input ID with its outcome
type BatchResult struct {
	ID     string
	Report *Report
	Err    error
}

// RunBatch runs independent baskets concurrently, at most limit at a time.
// Results keep the input order; one failing basket does not stop the others.
func (o *Orchestrator) RunBatch(ctx context.Context, inputs []Input, limit int) []BatchResult {
	results := make([]BatchResult, len(inputs))

	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			report, err := o.Run(ctx, in)
			results[i] = BatchResult{ID: in.ID, Report: report, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
