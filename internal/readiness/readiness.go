// Package readiness waits for dependent services with a bounded, fixed-delay
// retry loop.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrNotReady is returned when every attempt failed.
var ErrNotReady = errors.New("service not ready")

// Defaults match the storage bootstrap of the workshop environment.
const (
	DefaultAttempts = 30
	DefaultDelay    = 2 * time.Second
)

// Probe checks the dependency once. A nil error means ready.
type Probe func(ctx context.Context) error

// Policy bounds a wait.
type Policy struct {
	// Attempts is the total number of probes, at least 1.
	Attempts uint64

	// Delay is the fixed pause between probes. No backoff, no jitter.
	Delay time.Duration

	// OnFailure, if set, is called after each failed probe with the
	// 1-based attempt number and whether another attempt follows.
	OnFailure func(attempt uint64, retrying bool, err error)
}

// DefaultPolicy returns the 30 x 2s policy.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

// Wait runs probe until it succeeds, the attempt cap is reached, or ctx is
// done. Exhausting the cap returns an error wrapping ErrNotReady and the
// last probe error.
func Wait(ctx context.Context, p Policy, probe Probe) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}

	// NewConstant rejects non-positive durations.
	delay := p.Delay
	if delay <= 0 {
		delay = time.Nanosecond
	}
	backoff := retry.WithMaxRetries(attempts-1, retry.NewConstant(delay))

	var attempt uint64
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := probe(ctx); err != nil {
			if p.OnFailure != nil {
				p.OnFailure(attempt, attempt < attempts, err)
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("waiting for readiness: %w", ctxErr)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrNotReady, attempt, err)
}
