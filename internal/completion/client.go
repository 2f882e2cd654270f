package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Compile-time interface check
var _ Completer = (*Client)(nil)

// Policy controls throttling and retry behavior for the Client.
type Policy struct {
	// MinInterval is the minimum time between two external calls,
	// enforced process-wide across all callers.
	MinInterval time.Duration

	// MaxAttempts is the total number of attempts per invocation.
	MaxAttempts int

	// OverloadCooldown is the wait after a rate-limit rejection before
	// the next attempt.
	OverloadCooldown time.Duration

	// RetryBackoff is the linear backoff step for other failures:
	// attempt N waits N × RetryBackoff before retrying.
	RetryBackoff time.Duration

	// FailFastAuth stops retrying on credential rejection instead of
	// consuming retry attempts on an unrecoverable error.
	FailFastAuth bool
}

func (p Policy) withDefaults() Policy {
	if p.MinInterval <= 0 {
		p.MinInterval = 5 * time.Second
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 3
	}
	if p.OverloadCooldown <= 0 {
		p.OverloadCooldown = 60 * time.Second
	}
	if p.RetryBackoff <= 0 {
		p.RetryBackoff = 2 * time.Second
	}
	return p
}

// Client wraps a Completer with global throttling and bounded retries.
// The last-call timestamp is the only shared mutable state; concurrent
// callers serialize through it, each reserving a slot at least MinInterval
// after the previous one.
type Client struct {
	svc    Completer
	policy Policy

	mu       sync.Mutex
	lastCall time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a throttled, retrying client around the given service.
func NewClient(svc Completer, policy Policy) *Client {
	return &Client{
		svc:    svc,
		policy: policy.withDefaults(),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Complete issues the request, waiting out the global throttle before each
// attempt. Rate-limit rejections wait the fixed cooldown; other failures
// back off linearly. The returned error wraps ErrOverloaded when retries
// were exhausted by rate limiting, so callers can avoid retrying redundantly.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.sleep(ctx, c.reserveSlot()); err != nil {
			return "", fmt.Errorf("completion throttle wait: %w", err)
		}

		result, err := c.svc.Complete(ctx, system, user)
		if err == nil {
			return result, nil
		}
		lastErr = err

		switch {
		case errors.Is(err, ErrUnauthorized) && c.policy.FailFastAuth:
			return "", fmt.Errorf("completion attempt %d: %w", attempt, err)
		case errors.Is(err, ErrOverloaded):
			slog.Warn("completion service overloaded, cooling down",
				"attempt", attempt,
				"cooldown", c.policy.OverloadCooldown,
				"component", "completion",
			)
			if attempt < c.policy.MaxAttempts {
				if err := c.sleep(ctx, c.policy.OverloadCooldown); err != nil {
					return "", fmt.Errorf("completion cooldown wait: %w", err)
				}
			}
		default:
			slog.Warn("completion attempt failed, backing off",
				"attempt", attempt,
				"error", err,
				"component", "completion",
			)
			if attempt < c.policy.MaxAttempts {
				backoff := time.Duration(attempt) * c.policy.RetryBackoff
				if err := c.sleep(ctx, backoff); err != nil {
					return "", fmt.Errorf("completion backoff wait: %w", err)
				}
			}
		}
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", c.policy.MaxAttempts, lastErr)
}

// ModelName returns the underlying service's model name.
func (c *Client) ModelName() string {
	return c.svc.ModelName()
}

// reserveSlot advances the shared last-call timestamp and returns how long
// the caller must wait before its reserved slot. The timestamp moves on
// every attempt, not only on success, so concurrent callers stay spaced
// at least MinInterval apart.
func (c *Client) reserveSlot() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	next := c.lastCall.Add(c.policy.MinInterval)
	if c.lastCall.IsZero() || !now.Before(next) {
		c.lastCall = now
		return 0
	}

	c.lastCall = next
	return next.Sub(now)
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
