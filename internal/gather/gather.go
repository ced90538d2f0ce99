// Package gather runs independent tasks concurrently and collects every
// outcome, so one failing or panicking task never affects the others.
package gather

import (
	"context"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/seaschema/pkg/errors"
)

// Result is the outcome of one task
type Result[T any] struct {
	Value T
	Err   error
}

// Config bounds concurrency. Limit <= 0 means one goroutine per item.
type Config struct {
	Limit int
}

// All runs fn once per item and returns the results in input order.
// Errors and panics are captured into the matching Result. ctx is passed
// through unchanged: a task failure never cancels its siblings.
func All[K any, T any](ctx context.Context, cfg Config, items []K, fn func(ctx context.Context, item K) (T, error)) []Result[T] {
	results := make([]Result[T], len(items))
	if len(items) == 0 {
		return results
	}

	var g errgroup.Group
	if cfg.Limit > 0 {
		g.SetLimit(cfg.Limit)
	}

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			results[i] = run(ctx, item, fn)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func run[K any, T any](ctx context.Context, item K, fn func(ctx context.Context, item K) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: errors.Newf(errors.ErrorTypeInternal, "task panicked: %v", r).
				WithDetail("stack", string(debug.Stack()))}
		}
	}()

	v, err := fn(ctx, item)
	return Result[T]{Value: v, Err: err}
}

// Each runs fn once per item concurrently and returns the errors in input
// order (nil entries for successes).
func Each[K any](ctx context.Context, cfg Config, items []K, fn func(ctx context.Context, item K) error) []error {
	results := All(ctx, cfg, items, func(ctx context.Context, item K) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	errs := make([]error, len(results))
	for i, r := range results {
		errs[i] = r.Err
	}
	return errs
}
