// Package taskpool runs independent jobs with a fixed number in flight.
package taskpool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the in-flight cap used when a caller passes limit <= 0.
const DefaultLimit = 4

// Job is one unit of work.
type Job[T any] func(ctx context.Context) (T, error)

// Result holds the outcome of the job at the same index. Err is non-nil
// when the job failed, panicked, or was never started because ctx ended.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the job succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Run executes jobs with at most limit in flight and returns one result per
// job, in job order. Each job is attempted at most once, and a failing job
// never affects the others: Run itself cannot fail.
func Run[T any](ctx context.Context, limit int, jobs []Job[T]) []Result[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	results := make([]Result[T], len(jobs))

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			results[i].Err = fmt.Errorf("job %d not started: %w", i, err)
			continue
		}
		// Go blocks until a slot frees up.
		g.Go(func() error {
			results[i] = runOne(ctx, i, job)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runOne[T any](ctx context.Context, i int, job Job[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: fmt.Errorf("job %d panicked: %v", i, r)}
		}
	}()
	if job == nil {
		return Result[T]{Err: fmt.Errorf("job %d is nil", i)}
	}
	value, err := job(ctx)
	if err != nil {
		return Result[T]{Err: err}
	}
	return Result[T]{Value: value}
}
