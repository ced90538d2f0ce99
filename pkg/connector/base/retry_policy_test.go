package base

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/errors"
)

func fastPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	var calls int32
	var retries []int

	rp := fastPolicy().WithOnRetry(func(attempt int, _ time.Duration, _ error) {
		retries = append(retries, attempt)
	})

	got, err := Retry(context.Background(), rp, func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", stderrors.New("connection reset")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	var calls int32
	cause := stderrors.New("server gone away")
	rp := fastPolicy()

	start := time.Now()
	err := rp.Execute(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return cause
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	// 2ms after the first failure, 4ms after the second
	assert.GreaterOrEqual(t, elapsed, 6*time.Millisecond)
}

func TestRetryPolicy_NonRetryableErrorStopsImmediately(t *testing.T) {
	var calls int32
	cfgErr := errors.New(errors.ErrorTypeConfig, "database name is required")

	err := fastPolicy().Execute(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return cfgErr
	})

	assert.Same(t, cfgErr, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryPolicy_CustomShouldRetry(t *testing.T) {
	var calls int32
	rp := fastPolicy()
	rp.ShouldRetry = func(error) bool { return false }

	err := rp.Execute(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return stderrors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryPolicy_ContextCancelledDuringBackoff(t *testing.T) {
	rp := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Second, Multiplier: 2}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var calls int32
	start := time.Now()
	err := rp.Execute(ctx, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return stderrors.New("timeout talking to server")
	})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
}

func TestRetryPolicy_SingleAttemptReturnsBareError(t *testing.T) {
	cause := stderrors.New("boom")
	err := NoRetryPolicy().Execute(context.Background(), func(ctx context.Context) error {
		return cause
	})
	assert.Same(t, cause, err)
}

func TestRetryPolicy_GetDelay(t *testing.T) {
	rp := DefaultRetryPolicy()

	assert.Equal(t, 3, rp.MaxAttempts)
	assert.Equal(t, 2*time.Second, rp.GetDelay(0))
	assert.Equal(t, 4*time.Second, rp.GetDelay(1))
	assert.Equal(t, 8*time.Second, rp.GetDelay(2))
	assert.Equal(t, 10*time.Second, rp.GetDelay(3))
	assert.Equal(t, 6*time.Second, rp.TotalBackoff())
}

func TestRetryPolicy_Randomization(t *testing.T) {
	rp := DefaultRetryPolicy().WithRandomization(0.5)
	for i := 0; i < 20; i++ {
		d := rp.GetDelay(0)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
}

func TestRetryPolicy_WithHelpersCopy(t *testing.T) {
	rp := DefaultRetryPolicy()
	changed := rp.WithMaxAttempts(5).WithDelay(time.Millisecond, 5*time.Millisecond)

	assert.Equal(t, 3, rp.MaxAttempts)
	assert.Equal(t, 2*time.Second, rp.InitialDelay)
	assert.Equal(t, 5, changed.MaxAttempts)
	assert.Equal(t, time.Millisecond, changed.InitialDelay)
	assert.Equal(t, 5*time.Millisecond, changed.MaxDelay)
}

func TestRetryPolicyFromConfig(t *testing.T) {
	m := config.DefaultManagerConfig()
	m.RetryAttempts = 4
	m.RetryDelay = 100 * time.Millisecond

	rp := RetryPolicyFromConfig(m)
	assert.Equal(t, 4, rp.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, rp.InitialDelay)
	assert.Equal(t, m.MaxRetryDelay, rp.MaxDelay)
	assert.Equal(t, 2.0, rp.Multiplier)
}
