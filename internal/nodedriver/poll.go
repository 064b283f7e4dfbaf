package nodedriver

import (
	"context"
	"time"
)

// PollUntil calls cond up to retryCount times, interval apart, until it
// reports done. It returns the value of the successful call, the first
// error cond returns, ctx.Err() on cancellation, or a *TimeoutError.
func PollUntil[T any](ctx context.Context, retryCount int, interval time.Duration, cond func(context.Context) (T, bool, error), msg string) (T, error) {
	var zero T
	start := time.Now()
	for attempt := 0; attempt < retryCount; attempt++ {
		value, done, err := cond(ctx)
		if err != nil {
			return zero, err
		}
		if done {
			return value, nil
		}
		if attempt == retryCount-1 {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, &TimeoutError{Msg: msg, Waited: time.Since(start)}
}
