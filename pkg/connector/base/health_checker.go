package base

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/seaschema/pkg/logger"
)

// Health states reported by HealthChecker
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)

// unhealthyAfter is the number of consecutive failed checks that turns a
// degraded connector unhealthy
const unhealthyAfter = 3

// HealthStatus is a snapshot of a connector's health
type HealthStatus struct {
	Name                string    `json:"name"`
	Status              string    `json:"status"`
	Timestamp           time.Time `json:"timestamp"`
	Latency             string    `json:"latency,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures,omitempty"`
	CheckCount          int64     `json:"check_count"`
	FailureCount        int64     `json:"failure_count"`
	LastError           string    `json:"last_error,omitempty"`

	Err error `json:"-"`
}

// Healthy reports whether the last check passed
func (s HealthStatus) Healthy() bool {
	return s.Status == HealthStatusHealthy
}

// HealthChecker tracks the outcome of repeated checks against one connector
type HealthChecker struct {
	name      string
	timeout   time.Duration
	checkFunc func(ctx context.Context) error
	logger    *zap.Logger

	mu               sync.Mutex
	status           HealthStatus
	consecutiveFails int
}

// NewHealthChecker creates a checker that runs check with the given timeout.
// A zero timeout leaves the caller's deadline in place.
func NewHealthChecker(name string, timeout time.Duration, check func(ctx context.Context) error, l *zap.Logger) *HealthChecker {
	return &HealthChecker{
		name:      name,
		timeout:   timeout,
		checkFunc: check,
		logger:    logger.OrNop(l).With(zap.String("component", "health_checker"), zap.String("connector", name)),
		status: HealthStatus{
			Name:      name,
			Status:    HealthStatusHealthy,
			Timestamp: time.Now(),
		},
	}
}

// Check runs one check and returns the updated status
func (hc *HealthChecker) Check(ctx context.Context) HealthStatus {
	checkCtx := ctx
	if hc.timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, hc.timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	if hc.checkFunc != nil {
		err = hc.checkFunc(checkCtx)
	}
	elapsed := time.Since(start)

	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.status.CheckCount++
	hc.status.Timestamp = time.Now()
	hc.status.Latency = elapsed.String()

	if err != nil {
		hc.status.FailureCount++
		hc.consecutiveFails++

		if hc.consecutiveFails >= unhealthyAfter {
			hc.status.Status = HealthStatusUnhealthy
		} else {
			hc.status.Status = HealthStatusDegraded
		}
		hc.status.ConsecutiveFailures = hc.consecutiveFails
		hc.status.LastError = err.Error()
		hc.status.Err = err

		hc.logger.Warn("health check failed",
			zap.Error(err),
			zap.String("status", hc.status.Status),
			zap.Int("consecutive_failures", hc.consecutiveFails))
	} else {
		hc.consecutiveFails = 0
		hc.status.Status = HealthStatusHealthy
		hc.status.ConsecutiveFailures = 0
		hc.status.LastError = ""
		hc.status.Err = nil

		hc.logger.Debug("health check passed", zap.Duration("latency", elapsed))
	}

	return hc.status
}
