package engine

import (
	"context"
	"sync"
	"time"
)

// Clock is the loop's time source.
type Clock interface {
	Now() time.Time
}

// Waiter is the loop's single suspension point per iteration.
type Waiter interface {
	Wait(ctx context.Context) error
}

// SystemClock reads the monotonic wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TickWaiter wakes on a fixed period, standing in for a display refresh.
type TickWaiter struct {
	t *time.Ticker
}

func NewTickWaiter(period time.Duration) *TickWaiter {
	return &TickWaiter{t: time.NewTicker(period)}
}

func (w *TickWaiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.t.C:
		return nil
	}
}

func (w *TickWaiter) Stop() { w.t.Stop() }

// FakeClock is a controllable Clock for tests and deterministic replays.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StepWaiter advances a FakeClock by a fixed step on every Wait.
type StepWaiter struct {
	Clock *FakeClock
	Step  time.Duration
	Waits int
}

func (w *StepWaiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.Waits++
	w.Clock.Advance(w.Step)
	return nil
}
