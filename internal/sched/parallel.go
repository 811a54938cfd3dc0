package sched

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunParallel calls fn for job indexes 0..n-1 with at most jobs calls in
// flight. Each call should own its instances; nothing is shared between
// calls. The first error cancels the context passed to the remaining calls.
func RunParallel(ctx context.Context, n, jobs int, fn func(ctx context.Context, i int) error) error {
	if jobs <= 0 {
		jobs = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
