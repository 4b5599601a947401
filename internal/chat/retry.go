package chat

import (
	"context"
	"sync"
	"time"
)

// Coordinator decides when failed messages are retried. Transient
// failures get one automatic retry per failure event; any failure below
// the attempt ceiling can be retried manually.
type Coordinator struct {
	engine *Engine
	delay  time.Duration

	mu      sync.Mutex
	claimed map[string]int // message id -> attempt already scheduled
}

// NewCoordinator creates a coordinator that waits delay before an
// automatic retry.
func NewCoordinator(engine *Engine, delay time.Duration) *Coordinator {
	return &Coordinator{
		engine:  engine,
		delay:   delay,
		claimed: make(map[string]int),
	}
}

// Delay returns the automatic retry delay.
func (c *Coordinator) Delay() time.Duration { return c.delay }

// Claim reports whether s is eligible for an automatic retry and records
// it so the same failure is never scheduled twice. Callers that manage
// their own timers (the TUI uses tea.Tick) call Claim for every
// settlement and then Retry on the engine once the delay has elapsed.
// Messages that are confirmed or out of attempts are forgotten.
func (c *Coordinator) Claim(s Settlement) bool {
	if s.Stale {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Status != StatusFailed || s.Terminal || s.Attempt >= MaxAttempts {
		delete(c.claimed, s.MessageID)
		return false
	}
	if !s.AutoRetry || s.Failure != FailureTransient {
		return false
	}
	if last, ok := c.claimed[s.MessageID]; ok && last >= s.Attempt {
		return false
	}
	c.claimed[s.MessageID] = s.Attempt
	return true
}

func (c *Coordinator) tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.claimed)
}

// ScheduleAutoRetry waits the retry delay and then retries the message
// behind s. It returns ErrNotRetryable when s is not eligible.
func (c *Coordinator) ScheduleAutoRetry(ctx context.Context, s Settlement) (Dispatch, error) {
	if !c.Claim(s) {
		return Dispatch{}, ErrNotRetryable
	}
	if err := sleep(ctx, c.delay); err != nil {
		return Dispatch{}, err
	}
	return c.engine.Retry(s.Tab, s.MessageID)
}

// ManualRetry retries a failed message on the user's behalf, whatever the
// failure classification.
func (c *Coordinator) ManualRetry(tab Tab, id string) (Dispatch, error) {
	return c.engine.Retry(tab, id)
}

// Run sends d and settles it, retrying transient failures automatically
// until the message is confirmed, fails for good, or ctx is done.
func (c *Coordinator) Run(ctx context.Context, d Dispatch) Settlement {
	for {
		s := c.engine.Settle(c.engine.Send(ctx, d))
		if s.Status != StatusFailed {
			c.Claim(s)
			return s
		}
		next, err := c.ScheduleAutoRetry(ctx, s)
		if err != nil {
			return s
		}
		d = next
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
