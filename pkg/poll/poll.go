// Package poll provides the bounded wait used wherever the pipeline has to
// block on something it does not control: a segment reaching a terminal
// state, or a long-running generation request finishing remotely.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when a policy's attempt or time ceiling is reached
// before the condition reports done.
var ErrTimeout = errors.New("poll: ceiling reached")

// Policy bounds a wait. At least one of MaxAttempts or Timeout should be set;
// a zero value for either means that ceiling is not enforced.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// Condition is evaluated once per attempt, starting with attempt 1.
// Returning done stops the wait; a non-nil error aborts it immediately.
type Condition func(ctx context.Context, attempt int) (done bool, err error)

// Until evaluates cond immediately and then once per interval until it
// reports done, returns an error, the context ends, or the policy ceiling
// is reached.
func Until(ctx context.Context, p Policy, cond Condition) error {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}

	var deadline <-chan time.Time
	if p.Timeout > 0 {
		timer := time.NewTimer(p.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		done, err := cond(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("%w after %d attempts", ErrTimeout, attempt)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("%w after %s", ErrTimeout, p.Timeout)
		case <-ticker.C:
		}
	}
}
