package base

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/errors"
)

// RetryPolicy defines retry behavior for listing/describe calls.
// A policy is a value: the With* helpers return modified copies.
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	RandomizeFactor float64

	// ShouldRetry decides whether a failure is worth another attempt.
	// nil means errors.IsRetryable.
	ShouldRetry func(error) bool
	// OnRetry is called before each backoff wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// RetryPolicyFromConfig builds the policy described by a manager configuration
func RetryPolicyFromConfig(m config.ManagerConfig) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  m.RetryAttempts,
		InitialDelay: m.RetryDelay,
		MaxDelay:     m.MaxRetryDelay,
		Multiplier:   m.RetryMultiplier,
	}
}

// Execute runs fn until it succeeds, the policy is exhausted, or ctx is done.
// The error of the last attempt is wrapped, so errors.Is/As reach it.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	shouldRetry := rp.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = errors.IsRetryable
	}
	return rp.ExecuteWithCondition(ctx, fn, shouldRetry)
}

// ExecuteWithCondition runs a function with retry only if condition is met
func (rp *RetryPolicy) ExecuteWithCondition(ctx context.Context, fn func(ctx context.Context) error, shouldRetry func(error) bool) error {
	attempts := rp.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Don't wait after the last attempt
		if attempt == attempts-1 {
			break
		}

		delay := rp.calculateDelay(attempt)
		if rp.OnRetry != nil {
			rp.OnRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout,
				fmt.Sprintf("retry cancelled after %d attempts (last error: %v)", attempt+1, lastErr))
		case <-timer.C:
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

// Retry runs fn under the policy and returns its value on success.
func Retry[T any](ctx context.Context, rp *RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := rp.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// calculateDelay returns the wait after the given zero-based failed attempt
func (rp *RetryPolicy) calculateDelay(attempt int) time.Duration {
	multiplier := rp.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(rp.InitialDelay) * math.Pow(multiplier, float64(attempt))

	if rp.MaxDelay > 0 && delay > float64(rp.MaxDelay) {
		delay = float64(rp.MaxDelay)
	}

	// Jitter
	if rp.RandomizeFactor > 0 {
		delta := delay * rp.RandomizeFactor
		minDelay := delay - delta
		maxDelay := delay + delta
		delay = minDelay + (rand.Float64() * (maxDelay - minDelay))
	}

	return time.Duration(delay)
}

// GetDelay returns the delay for a specific attempt (for testing/preview)
func (rp *RetryPolicy) GetDelay(attempt int) time.Duration {
	return rp.calculateDelay(attempt)
}

// TotalBackoff is the sum of all waits when every attempt fails (no jitter)
func (rp *RetryPolicy) TotalBackoff() time.Duration {
	var total time.Duration
	for i := 0; i < rp.MaxAttempts-1; i++ {
		total += rp.calculateDelay(i)
	}
	return total
}

// Clone creates a copy of the retry policy
func (rp *RetryPolicy) Clone() *RetryPolicy {
	c := *rp
	return &c
}

// WithMaxAttempts returns a new policy with updated max attempts
func (rp *RetryPolicy) WithMaxAttempts(attempts int) *RetryPolicy {
	policy := rp.Clone()
	policy.MaxAttempts = attempts
	return policy
}

// WithDelay returns a new policy with updated delays
func (rp *RetryPolicy) WithDelay(initial, max time.Duration) *RetryPolicy {
	policy := rp.Clone()
	policy.InitialDelay = initial
	policy.MaxDelay = max
	return policy
}

// WithRandomization returns a new policy with updated randomization
func (rp *RetryPolicy) WithRandomization(factor float64) *RetryPolicy {
	policy := rp.Clone()
	policy.RandomizeFactor = factor
	return policy
}

// WithOnRetry returns a new policy that reports each retry to fn
func (rp *RetryPolicy) WithOnRetry(fn func(attempt int, delay time.Duration, err error)) *RetryPolicy {
	policy := rp.Clone()
	policy.OnRetry = fn
	return policy
}

// DefaultRetryPolicy returns three attempts waiting 2s then 4s, capped at 10s
func DefaultRetryPolicy() *RetryPolicy {
	return RetryPolicyFromConfig(config.DefaultManagerConfig())
}

// NoRetryPolicy returns a policy that doesn't retry
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 1,
	}
}
