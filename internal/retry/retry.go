// File path: internal/retry/retry.go
package retry

import (
	"context"
	"time"

	"github.com/activitylens/lens/internal/common"
	"github.com/activitylens/lens/internal/common/telemetry"
)

// Policy re-executes a fallible operation with exponential backoff. It is a
// pure combinator: it has no knowledge of what it wraps and never inspects
// error types. The final failure is returned unchanged.
type Policy struct {
	Attempts int
	Base     time.Duration
}

// Default is the pipeline's standard policy: three attempts with sleeps of
// 1s and 2s between them.
func Default() Policy {
	return Policy{Attempts: 3, Base: time.Second}
}

// Do invokes op up to p.Attempts times, sleeping Base * 2^attempt between
// failures. The sleep honors context cancellation, in which case the context
// error is returned.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	var zero T
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		var result T
		result, err = op()
		if err == nil {
			return result, nil
		}
		if attempt == attempts-1 {
			break
		}
		telemetry.RecordRetry()
		wait := p.Base << attempt
		common.Logger().Debug("retry: attempt failed", "attempt", attempt+1, "of", attempts, "wait", wait, "error", err)
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return zero, sleepErr
		}
	}
	return zero, err
}

// Run is the zero-result convenience form of Do.
func Run(ctx context.Context, p Policy, op func() error) error {
	_, err := Do(ctx, p, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
