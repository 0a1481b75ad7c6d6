package tools

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultPollMaxAttempts = 60
)

// Poller is the wait policy for a long-running backend job. The zero value
// polls every 5s, 60 times. A Multiplier above 1 grows the wait after each
// attempt, capped at MaxInterval.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	Multiplier  float64
	MaxInterval time.Duration

	// Sleep replaces the timer wait; tests use it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// CheckFunc inspects the job once. done ends the loop successfully; a non-nil
// error ends it with that error.
type CheckFunc func(ctx context.Context, attempt int) (done bool, err error)

func (p Poller) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultPollMaxAttempts
	}
	return p.MaxAttempts
}

// Delay is the wait before the given attempt (1-based).
func (p Poller) Delay(attempt int) time.Duration {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if p.Multiplier <= 1 || attempt <= 1 {
		return interval
	}

	d := float64(interval) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxInterval > 0 && d > float64(p.MaxInterval) {
		return p.MaxInterval
	}
	if d > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Poll waits, then checks, until check is done or fails, attempts run out, or
// ctx ends. It returns how many checks ran.
func (p Poller) Poll(ctx context.Context, check CheckFunc) (int, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	limit := p.maxAttempts()
	for attempt := 1; attempt <= limit; attempt++ {
		if err := sleep(ctx, p.Delay(attempt)); err != nil {
			return attempt - 1, err
		}

		done, err := check(ctx, attempt)
		if err != nil {
			return attempt, err
		}
		if done {
			return attempt, nil
		}
	}

	return limit, fmt.Errorf("%w after %d attempts", ErrTimeout, limit)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
