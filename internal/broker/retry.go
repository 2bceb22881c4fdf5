package broker

import (
	"context"
	"errors"
	"time"
)

const (
	defaultHandlerAttempts = 3
	defaultRetryDelay      = 200 * time.Millisecond
)

// retryPolicy re-runs a failing handler with linear backoff. ErrPoison is never retried.
type retryPolicy struct {
	attempts int
	delay    time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: defaultHandlerAttempts, delay: defaultRetryDelay}
}

// run returns nil, the ErrPoison-wrapping error, or the last transient error.
func (p retryPolicy) run(ctx context.Context, handler MessageHandler, body []byte) error {
	attempts := max(p.attempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = handler(ctx, body)
		if err == nil || errors.Is(err, ErrPoison) || attempt == attempts {
			return err
		}
		if waitErr := p.wait(ctx, attempt); waitErr != nil {
			return err
		}
	}
	return err
}

// wait sleeps attempt*delay or until ctx is done.
func (p retryPolicy) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
