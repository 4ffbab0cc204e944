// Package fetch runs independent asynchronous tasks under a concurrency
// ceiling while preserving input order in the result set.
package fetch

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// Task produces one value, typically by reading file content at a ref.
type Task[T any] func(context.Context) (T, error)

// Map executes tasks with at most limit running concurrently and returns
// results[i] holding the outcome of tasks[i], regardless of completion
// order. The first task error fails the whole call and cancels the pool
// context; tasks already in flight run to completion but their results are
// discarded. A limit <= 0 or >= len(tasks) behaves as unbounded.
func Map[T any](ctx context.Context, tasks []Task[T], limit int) ([]T, error) {
	if len(tasks) == 0 {
		return []T{}, nil
	}

	results := make([]T, len(tasks))

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	if limit > 0 {
		p = p.WithMaxGoroutines(limit)
	}
	for i, task := range tasks {
		p.Go(func(ctx context.Context) error {
			v, err := task(ctx)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
