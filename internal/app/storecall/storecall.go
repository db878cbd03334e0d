// Package storecall bounds store calls with a timeout and retries optimistic-concurrency conflicts.
package storecall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/orderboard/internal/domain"
)

type Policy struct {
	Timeout     time.Duration
	MaxAttempts int
}

var DefaultPolicy = Policy{Timeout: 5 * time.Second, MaxAttempts: 5}

// Call runs fn once under the policy timeout. A timeout is reported as
// ErrStoreUnavailable and ErrOutcomeUnknown: the write may or may not have landed.
func (p Policy) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %w: %w", domain.ErrStoreUnavailable, domain.ErrOutcomeUnknown, err)
	}
	return err
}

// Retry runs fn until it stops failing with ErrVersionConflict or the attempts run out.
// Every attempt gets its own timeout.
func (p Policy) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = p.Call(ctx, fn)
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}
