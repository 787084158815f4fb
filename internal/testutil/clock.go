package testutil

import (
	"context"
	"time"
)

// FakeClock is a manually advanced clock. Sleep returns immediately after moving
// the clock forward, so polling loops run without real delays.
type FakeClock struct {
	now    time.Time
	Sleeps []time.Duration

	// OnSleep, when set, runs after each sleep with the new current time.
	OnSleep func(now time.Time)
}

// NewFakeClock creates a FakeClock starting at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	return c.now
}

// Sleep advances the clock by d unless ctx is already done.
func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.Sleeps = append(c.Sleeps, d)
	c.now = c.now.Add(d)

	if c.OnSleep != nil {
		c.OnSleep(c.now)
	}

	return nil
}

// Advance moves the clock forward without recording a sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// TotalSlept returns the sum of all recorded sleeps.
func (c *FakeClock) TotalSlept() time.Duration {
	var total time.Duration
	for _, d := range c.Sleeps {
		total += d
	}

	return total
}
