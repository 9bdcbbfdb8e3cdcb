// Package upstream bounds every call to a third-party service with its own
// deadline so a slow provider is treated the same as a failed one.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when a call does not finish before its deadline.
var ErrTimeout = errors.New("upstream call timed out")

// Call runs fn under a deadline derived from ctx. It returns as soon as the
// deadline passes even when fn ignores its context; the abandoned result is
// discarded. A zero or negative timeout applies no extra deadline.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return r.v, fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, r.err)
		}
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return zero, ctx.Err()
	}
}
