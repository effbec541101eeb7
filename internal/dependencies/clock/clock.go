package clock

import (
	"context"
	"time"
)

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time

	// Sleep blocks for the given duration or until the context is done,
	// returning the context's error in the latter case
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for d, honouring context cancellation
func (c *RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
