package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/athenaeum/moirai/internal/dependencies/clock"
	"github.com/athenaeum/moirai/internal/dependencies/random"
)

// ErrServiceUnreachable is returned when every attempt was rate limited
var ErrServiceUnreachable = errors.New("service unreachable after retries")

// Doer abstracts the underlying HTTP transport
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Policy describes the retry behaviour of a Client.
// Delay before attempt n+1 is BaseDelay*2^n plus a uniform jitter drawn
// from [0, RateLimitJitterMax) after a 429 or [0, NetworkJitterMax) after
// a connection failure.
type Policy struct {
	MaxAttempts        int
	BaseDelay          time.Duration
	RateLimitJitterMax time.Duration
	NetworkJitterMax   time.Duration
}

// DefaultPolicy returns the standard retry policy
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:        3,
		BaseDelay:          time.Second,
		RateLimitJitterMax: time.Second,
		NetworkJitterMax:   500 * time.Millisecond,
	}
}

// Client wraps an HTTP transport with bounded retry and exponential
// backoff. Retry applies only to rate limiting (429) and connection
// failure; every other response, success or error, is returned as-is.
type Client struct {
	doer   Doer
	policy Policy
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// New creates a resilient fetch client
func New(doer Doer, policy Policy, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	return &Client{
		doer:   doer,
		policy: policy,
		clock:  clk,
		random: rnd,
		logger: logger,
	}
}

// Do issues the request, retrying per the policy. Requests may carry a
// body, so the caller supplies a builder invoked once per attempt.
func (c *Client) Do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.doer.Do(req.WithContext(ctx))
		if err != nil {
			if attempt == c.policy.MaxAttempts-1 {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			c.logger.Warn("connection failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)
			if err := c.wait(ctx, attempt, c.policy.NetworkJitterMax); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			if attempt == c.policy.MaxAttempts-1 {
				return nil, ErrServiceUnreachable
			}
			c.logger.Warn("rate limited, backing off",
				slog.Int("attempt", attempt+1),
			)
			if err := c.wait(ctx, attempt, c.policy.RateLimitJitterMax); err != nil {
				return nil, err
			}
			continue
		}

		// Non-429 responses are the caller's to interpret, error statuses included
		return resp, nil
	}

	return nil, ErrServiceUnreachable
}

// wait sleeps for the backoff delay before the next attempt
func (c *Client) wait(ctx context.Context, attempt int, jitterMax time.Duration) error {
	delay := c.policy.BaseDelay << uint(attempt)
	if jitterMax > 0 {
		jitterMs := int(jitterMax / time.Millisecond)
		delay += time.Duration(c.random.Intn(jitterMs)) * time.Millisecond
	}
	return c.clock.Sleep(ctx, delay)
}
