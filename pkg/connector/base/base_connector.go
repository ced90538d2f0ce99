// Package base provides the connector lifecycle shared by every backend
// variant.
//
// A variant only implements Backend: how to open its pool, list tables,
// describe a table and release the pool. BaseConnector wraps a Backend and
// supplies everything else:
//   - the Disconnected → Connected → Closed state machine
//   - lazy connect on first lookup, with an empty result when it fails
//   - RetryPolicy around listing/describe calls (never around connect)
//   - mapping native types through the variant's TypeMapper
//   - structured logging and Prometheus metrics
//
// # Usage
//
//	func New(cfg config.ConnectionConfig, logger *zap.Logger, opts ...base.Option) core.Connector {
//	    return base.NewBaseConnector(core.KindPostgreSQL, cfg, &backend{}, TypeMapper, logger, opts...)
//	}
package base

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/errors"
	"github.com/ajitpratap0/seaschema/pkg/logger"
	"github.com/ajitpratap0/seaschema/pkg/metrics"
)

// Column is one row of a describe call before type mapping
type Column struct {
	Name       string
	NativeType string
}

// Backend is the variant-specific half of a connector. Calls after Open are
// made concurrently and must be safe for that; the pool bounds sessions.
type Backend interface {
	// Open builds and verifies the pool
	Open(ctx context.Context, cfg config.ConnectionConfig) error
	// ListTables returns table names under the scope
	ListTables(ctx context.Context, database, schema string) ([]string, error)
	// DescribeTable returns column names with native types
	DescribeTable(ctx context.Context, table, database, schema string) ([]Column, error)
	// Ping checks the pool
	Ping(ctx context.Context) error
	// Close releases the pool; it must tolerate being called without Open
	Close() error
}

// Option configures a BaseConnector
type Option func(*BaseConnector)

// WithRetryPolicy replaces the default retry policy
func WithRetryPolicy(rp *RetryPolicy) Option {
	return func(bc *BaseConnector) {
		if rp != nil {
			bc.retryPolicy = rp
		}
	}
}

// BaseConnector implements core.Connector on top of a Backend.
type BaseConnector struct {
	kind        core.Kind
	config      config.ConnectionConfig
	backend     Backend
	mapper      core.TypeMapper
	logger      *zap.Logger
	retryPolicy *RetryPolicy
	collector   *metrics.Collector

	mu    sync.RWMutex
	state core.State
}

var _ core.Connector = (*BaseConnector)(nil)

// NewBaseConnector creates a Disconnected connector for the given backend
func NewBaseConnector(kind core.Kind, cfg config.ConnectionConfig, backend Backend, mapper core.TypeMapper, l *zap.Logger, opts ...Option) *BaseConnector {
	bc := &BaseConnector{
		kind:        kind,
		config:      cfg.WithDefaults(),
		backend:     backend,
		mapper:      mapper,
		logger:      logger.OrNop(l).With(zap.String("component", "connector"), zap.String("kind", string(kind))),
		retryPolicy: DefaultRetryPolicy(),
		collector:   metrics.NewCollector(string(kind)),
		state:       core.StateDisconnected,
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

// Kind returns the backend variant
func (bc *BaseConnector) Kind() core.Kind {
	return bc.kind
}

// Config returns a copy of the connection settings
func (bc *BaseConnector) Config() config.ConnectionConfig {
	return bc.config.WithDefaults()
}

// State returns the current lifecycle state
func (bc *BaseConnector) State() core.State {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.state
}

// Connect establishes the pool. Concurrent callers are serialized so at most
// one pool is ever built.
func (bc *BaseConnector) Connect(ctx context.Context) bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.connectLocked(ctx)
}

func (bc *BaseConnector) connectLocked(ctx context.Context) bool {
	switch bc.state {
	case core.StateConnected:
		return true
	case core.StateClosed:
		bc.logger.Error("cannot connect a closed connector", zap.Stringer("endpoint", bc.config))
		return false
	}

	if err := bc.config.Validate(); err != nil {
		bc.logger.Error("invalid connection config", zap.Stringer("endpoint", bc.config), zap.Error(err))
		bc.collector.RecordOperation("connect", time.Now(), err)
		return false
	}

	start := time.Now()
	openCtx := ctx
	if bc.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		openCtx, cancel = context.WithTimeout(ctx, bc.config.ConnectTimeout)
		defer cancel()
	}

	if err := bc.backend.Open(openCtx, bc.config); err != nil {
		err = errors.Wrap(err, errors.ErrorTypeConnection, "failed to create connection pool").
			WithDetail("endpoint", bc.config.String())
		bc.collector.RecordOperation("connect", start, err)
		bc.logger.Error("failed to connect",
			zap.Stringer("endpoint", bc.config),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		// A failed Open may have left partial resources behind
		_ = bc.backend.Close()
		return false
	}

	bc.state = core.StateConnected
	bc.collector.RecordOperation("connect", start, nil)
	bc.collector.SetActiveConnectors(1)
	bc.logger.Info("connection pool established",
		zap.Stringer("endpoint", bc.config),
		zap.Int("pool_min", bc.config.PoolMin),
		zap.Int("pool_max", bc.config.PoolMax),
		zap.Duration("elapsed", time.Since(start)))
	return true
}

// ensureConnected lazily connects. It returns false with a nil error when the
// connect attempt failed, which callers turn into an empty result.
func (bc *BaseConnector) ensureConnected(ctx context.Context) (bool, error) {
	bc.mu.RLock()
	state := bc.state
	bc.mu.RUnlock()

	switch state {
	case core.StateConnected:
		return true, nil
	case core.StateClosed:
		return false, errors.New(errors.ErrorTypeValidation, "connector is closed").
			WithDetail("kind", string(bc.kind))
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.connectLocked(ctx), nil
}

// GetTables lists table names visible under the given scope
func (bc *BaseConnector) GetTables(ctx context.Context, database, schema string) ([]string, error) {
	ok, err := bc.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	start := time.Now()
	tables, err := Retry(ctx, bc.retryFor("get_tables"), func(ctx context.Context) ([]string, error) {
		return bc.backend.ListTables(ctx, database, schema)
	})
	bc.collector.RecordOperation("get_tables", start, err)
	if err != nil {
		bc.logger.Error("failed to list tables",
			zap.String("database", database),
			zap.String("schema", schema),
			zap.Error(err))
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to list tables").
			WithDetail("database", database).
			WithDetail("schema", schema)
	}
	if tables == nil {
		tables = []string{}
	}
	return tables, nil
}

// GetColumns returns the canonical schema of one table
func (bc *BaseConnector) GetColumns(ctx context.Context, table, database, schema string) (map[string]core.CanonicalType, error) {
	ok, err := bc.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]core.CanonicalType{}, nil
	}

	start := time.Now()
	columns, err := Retry(ctx, bc.retryFor("get_columns"), func(ctx context.Context) ([]Column, error) {
		return bc.backend.DescribeTable(ctx, table, database, schema)
	})
	bc.collector.RecordOperation("get_columns", start, err)
	if err != nil {
		bc.logger.Error("failed to describe table",
			zap.String("table", table),
			zap.String("database", database),
			zap.String("schema", schema),
			zap.Error(err))
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to describe table").
			WithDetail("table", table).
			WithDetail("database", database).
			WithDetail("schema", schema)
	}

	fields := make(map[string]core.CanonicalType, len(columns))
	for _, col := range columns {
		fields[col.Name] = bc.mapper.MapType(col.NativeType)
	}
	return fields, nil
}

// retryFor decorates the policy with logging and the retry counter
func (bc *BaseConnector) retryFor(operation string) *RetryPolicy {
	return bc.retryPolicy.WithOnRetry(func(attempt int, delay time.Duration, err error) {
		bc.collector.RecordRetry(operation)
		bc.logger.Warn("retrying after failed attempt",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
	})
}

// Ping checks that the pool can still reach the database
func (bc *BaseConnector) Ping(ctx context.Context) error {
	if bc.State() != core.StateConnected {
		return errors.New(errors.ErrorTypeConnection, "connector is not connected").
			WithDetail("state", bc.State().String())
	}
	if err := bc.backend.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "ping failed")
	}
	return nil
}

// Close releases the pool. Closing twice is a no-op.
func (bc *BaseConnector) Close(ctx context.Context) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.state == core.StateClosed {
		return nil
	}
	wasConnected := bc.state == core.StateConnected
	bc.state = core.StateClosed

	if !wasConnected {
		return nil
	}

	start := time.Now()
	err := bc.backend.Close()
	bc.collector.RecordOperation("close", start, err)
	bc.collector.SetActiveConnectors(-1)
	if err != nil {
		bc.logger.Warn("error while closing connection pool", zap.Error(err))
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close connection pool")
	}
	bc.logger.Info("connection pool closed", zap.Stringer("endpoint", bc.config))
	return nil
}
