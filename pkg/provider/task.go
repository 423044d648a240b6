package provider

import (
	"context"
	"log/slog"
	"time"
)

// jobState is the outcome of one status check.
type jobState[T any] struct {
	done   bool
	result T
}

// waitJob polls check until the job is done.
//
// The state returned at submission is inspected first. While the job is not
// done, waitJob waits interval and calls check again. There is no attempt
// limit; only ctx bounds the loop.
func waitJob[T any](ctx context.Context, name string, first jobState[T], interval time.Duration, check func(context.Context) (jobState[T], error)) (T, error) {
	state := first
	checks := 0
	for !state.done {
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}

		var err error
		state, err = check(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		checks++
		slog.Debug("provider: job status", "job", name, "checks", checks, "done", state.done)
	}
	return state.result, nil
}
