package mocks

import (
	"context"
	"time"

	"github.com/athenaeum/moirai/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Sleep returns immediately and records the requested durations, so
// backoff timing can be asserted without real delays.
type MockClock struct {
	CurrentTime time.Time

	// Slept records every duration passed to Sleep, in order
	Slept []time.Duration
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

// Sleep records the duration, advances the mocked time and returns
// immediately unless the context is already done
func (c *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Slept = append(c.Slept, d)
	c.CurrentTime = c.CurrentTime.Add(d)
	return nil
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.CurrentTime = t
}
