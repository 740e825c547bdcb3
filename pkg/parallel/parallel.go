// Package parallel provides an order-preserving parallel map: apply a
// function to each of N independent jobs across W workers and return
// the results in input order regardless of completion order.
//
// The unit of work here is CPU-bound matrix arithmetic with no I/O to
// multiplex, so a worker pool sized to available compute units is the
// right model. Each result slot is owned by exactly one job, so
// workers share no mutable state.
//
// Example:
//
//	jobs := make([]parallel.Job[*sparse.Matrix], len(metapaths))
//	for i, mp := range metapaths {
//		mp := mp
//		jobs[i] = parallel.Job[*sparse.Matrix]{
//			Label: mp.Abbrev,
//			Run:   func() (*sparse.Matrix, error) { return count(mp) },
//		}
//	}
//	products, err := parallel.Run(ctx, jobs, runtime.NumCPU(), false)
package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Job is one independent unit of work. Label identifies the job in
// errors (for metapath counting, the metapath abbreviation) so the
// caller can tell a data problem from a systemic one.
type Job[R any] struct {
	Label string
	Run   func() (R, error)
}

// Run executes jobs across the given number of workers and returns the
// results in input order. workers < 1 means one worker (no
// parallelism).
//
// Failures never corrupt other jobs' results: each failed job leaves
// its result slot at the zero value and contributes a labeled error to
// the joined error return. With failFast set, the first failure cancels
// jobs that have not started; in-flight jobs still finish.
//
// Context cancellation skips jobs that have not started and reports
// ctx.Err.
func Run[R any](ctx context.Context, jobs []Job[R], workers int, failFast bool) ([]R, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]R, len(jobs))
	errs := make([]error, len(jobs))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if ctx.Err() != nil {
					errs[i] = ctx.Err()
					continue
				}
				r, err := jobs[i].Run()
				if err != nil {
					errs[i] = fmt.Errorf("%s: %w", jobs[i].Label, err)
					if failFast {
						cancel()
					}
					continue
				}
				results[i] = r
			}
		}()
	}

	for i := range jobs {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return results, errors.Join(errs...)
}
