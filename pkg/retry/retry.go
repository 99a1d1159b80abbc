package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// JitterStrategy selects how delays are randomised.
type JitterStrategy int

const (
	// JitterNone uses the exact backoff delay.
	JitterNone JitterStrategy = iota
	// JitterEqual picks a delay uniformly in [0, backoff).
	JitterEqual
	// JitterDecorrelated picks a delay in [backoff, 1.5*backoff).
	JitterDecorrelated
)

// Config defines retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first one)
	MaxAttempts int
	// InitialDelay is the delay before the second attempt
	InitialDelay time.Duration
	// MaxDelay caps every delay
	MaxDelay time.Duration
	// Multiplier is the exponential backoff multiplier
	Multiplier float64
	// JitterStrategy defines the jitter algorithm to use
	JitterStrategy JitterStrategy
	// Rand is the random source for jitter (optional)
	Rand *rand.Rand
	// OnRetry is called before each wait, for logging
	OnRetry func(attempt int, err error, nextDelay time.Duration)
	// After creates a timer channel (for testing, defaults to time.After)
	After func(d time.Duration) <-chan time.Time
}

// DefaultConfig returns a configuration suited to short local contention,
// such as a locked SQLite file.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   10 * time.Millisecond,
		MaxDelay:       500 * time.Millisecond,
		Multiplier:     2.0,
		JitterStrategy: JitterDecorrelated,
	}
}

// Normalize validates the configuration and fills optional fields.
func (c *Config) Normalize() error {
	if c.MaxAttempts <= 0 {
		return errors.New("retry: MaxAttempts must be positive")
	}
	if c.InitialDelay <= 0 {
		return errors.New("retry: InitialDelay must be positive")
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = c.InitialDelay
	}
	if c.InitialDelay > c.MaxDelay {
		return errors.New("retry: InitialDelay cannot be greater than MaxDelay")
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2.0
	}
	if c.Multiplier < 1.0 {
		return errors.New("retry: Multiplier must be >= 1.0")
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.After == nil {
		c.After = time.After
	}
	return nil
}

// RetryableFunc is a function that can be retried
type RetryableFunc func(ctx context.Context) error

// IsRetryableFunc determines if an error should trigger a retry
type IsRetryableFunc func(err error) bool

// RetriesExceededError is returned when every attempt failed with a
// retryable error.
type RetriesExceededError struct {
	LastError error
	Attempts  int
}

func (e *RetriesExceededError) Error() string {
	return fmt.Sprintf("retry: gave up after %d attempts: %v", e.Attempts, e.LastError)
}

func (e *RetriesExceededError) Unwrap() error {
	return e.LastError
}

// DefaultRetryable retries deadline expiry and errors that report
// themselves as temporary. Cancellation is never retried.
func DefaultRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) {
		return temporary.Temporary()
	}
	return false
}

// Do executes fn with exponential backoff, retrying errors accepted by
// DefaultRetryable.
func Do(ctx context.Context, config Config, fn RetryableFunc) error {
	return DoWithRetryable(ctx, config, fn, DefaultRetryable)
}

// DoWithRetryable executes fn with exponential backoff. Errors rejected by
// isRetryable are returned as is; exhausting the attempts yields a
// *RetriesExceededError wrapping the last error.
func DoWithRetryable(ctx context.Context, config Config, fn RetryableFunc, isRetryable IsRetryableFunc) error {
	cfg := config
	if err := cfg.Normalize(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.applyJitter(cfg.backoff(attempt))
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr, delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cfg.After(delay):
		}
	}

	return &RetriesExceededError{LastError: lastErr, Attempts: cfg.MaxAttempts}
}

// backoff returns the delay after the given failed attempt.
func (c Config) backoff(attempt int) time.Duration {
	delay := c.InitialDelay
	for i := 1; i < attempt; i++ {
		next := time.Duration(float64(delay) * c.Multiplier)
		if next > c.MaxDelay || next < delay {
			return c.MaxDelay
		}
		delay = next
	}
	return delay
}

func (c Config) applyJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return delay
	}
	switch c.JitterStrategy {
	case JitterEqual:
		return time.Duration(c.Rand.Int63n(int64(delay)))
	case JitterDecorrelated:
		spread := int64(delay / 2)
		if spread <= 0 {
			return delay
		}
		return min(delay+time.Duration(c.Rand.Int63n(spread)), c.MaxDelay)
	default:
		return delay
	}
}
