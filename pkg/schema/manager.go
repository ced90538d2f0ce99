// Package schema manages named connectors and serves table schema lookups
// across them.
//
// # Usage
//
//	m := schema.NewManager(schema.WithLogger(logger))
//	defer m.CloseAllConnectors(ctx)
//
//	if !m.CreateConnector(ctx, "postgresql", "pg_source", cfg) {
//	    return errors.New("connect failed")
//	}
//	set := m.GetSchemaForMultipleTables(ctx, "pg_source", []string{"users", "orders"}, "", "public")
//	out, _ := json.Marshal(set) // {"users":{"fields":{...}},"orders":{"fields":{...}}}
//
// Lookups never fail as a whole: a table whose lookup errored is returned
// as {"fields":{}} with TableSchema.Status set to core.LookupFailed.
package schema

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/seaschema/internal/gather"
	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/base"
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/connector/registry"
	"github.com/ajitpratap0/seaschema/pkg/errors"
	"github.com/ajitpratap0/seaschema/pkg/logger"
	"github.com/ajitpratap0/seaschema/pkg/metrics"
	"github.com/ajitpratap0/seaschema/pkg/observability"

	// Register every backend with the global registry
	_ "github.com/ajitpratap0/seaschema/pkg/connector/sources"
)

type entry struct {
	connector core.Connector
	tracer    *observability.ConnectorTracer
	health    *base.HealthChecker
}

// Manager owns a registry of named connectors. It is safe for concurrent
// use; network work never happens while the registry lock is held.
type Manager struct {
	config    config.ManagerConfig
	factories *registry.Registry
	logger    *zap.Logger

	mu         sync.RWMutex
	connectors map[string]entry
}

// Option configures a Manager
type Option func(*Manager)

// WithConfig sets retry and deadline behavior
func WithConfig(cfg config.ManagerConfig) Option {
	return func(m *Manager) {
		m.config = cfg
	}
}

// WithRegistry replaces the global connector registry
func WithRegistry(r *registry.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.factories = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger.OrNop(l)
	}
}

// NewManager creates an empty manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		config:     config.DefaultManagerConfig(),
		factories:  registry.GetRegistry(),
		logger:     zap.NewNop(),
		connectors: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("component", "schema_manager"))
	return m
}

// CreateConnector builds a connector for kind, connects it, and registers it
// under name. Nothing is registered when the kind is unsupported or the
// connect attempt fails.
func (m *Manager) CreateConnector(ctx context.Context, kind, name string, cfg config.ConnectionConfig) bool {
	l := m.logger.With(zap.String("connector", name))

	c := m.factories.Create(kind, cfg, l, base.WithRetryPolicy(base.RetryPolicyFromConfig(m.config)))
	if c == nil {
		l.Error("cannot create connector",
			zap.String("kind", kind),
			zap.Error(errors.Newf(errors.ErrorTypeCapability, "unsupported database type %q", kind)))
		return false
	}

	if !c.Connect(ctx) {
		l.Error("connector not registered: connect failed",
			zap.String("kind", kind),
			zap.Stringer("endpoint", cfg))
		_ = c.Close(ctx)
		return false
	}

	m.AddConnector(ctx, name, c)
	return true
}

// AddConnector registers an existing connector. A connector previously
// registered under the same name is closed and replaced.
func (m *Manager) AddConnector(ctx context.Context, name string, c core.Connector) {
	e := entry{
		connector: c,
		tracer:    observability.NewConnectorTracer(string(c.Kind()), name),
		health:    base.NewHealthChecker(name, m.config.QueryTimeout, c.Ping, m.logger),
	}

	m.mu.Lock()
	prev, replaced := m.connectors[name]
	m.connectors[name] = e
	m.mu.Unlock()

	if !replaced {
		metrics.RegisteredConnectors.Inc()
	}
	m.logger.Info("connector registered",
		zap.String("connector", name),
		zap.String("kind", string(c.Kind())),
		zap.Bool("replaced", replaced))

	if replaced && prev.connector != c {
		if err := prev.connector.Close(ctx); err != nil {
			m.logger.Warn("failed to close replaced connector",
				zap.String("connector", name),
				zap.Error(err))
		}
	}
}

// Has reports whether name is registered
func (m *Manager) Has(name string) bool {
	_, ok := m.lookup(name)
	return ok
}

// Names returns registered connector names, sorted
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.connectors))
	for name := range m.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connector returns the connector registered under name
func (m *Manager) Connector(name string) (core.Connector, bool) {
	e, ok := m.lookup(name)
	return e.connector, ok
}

func (m *Manager) lookup(name string) (entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.connectors[name]
	return e, ok
}

// withDeadline bounds one lookup, retries included
func (m *Manager) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.QueryTimeout > 0 {
		return context.WithTimeout(ctx, m.config.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

// GetTables lists tables of the named connector. An unknown name is logged
// and yields an empty list; exhausted retries are returned as an error.
func (m *Manager) GetTables(ctx context.Context, name, database, schema string) ([]string, error) {
	e, ok := m.lookup(name)
	if !ok {
		m.logger.Error("connector not found", zap.String("connector", name))
		return []string{}, nil
	}

	ctx, cancel := m.withDeadline(ctx)
	defer cancel()

	var tables []string
	err := e.tracer.Trace(ctx, "get_tables", func(ctx context.Context, span *observability.Span) error {
		var err error
		tables, err = e.connector.GetTables(ctx, database, schema)
		span.SetAttribute("database", database)
		span.SetAttribute("schema", schema)
		span.SetAttribute("tables", len(tables))
		return err
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// GetSchema returns the canonical schema of one table. It never returns an
// error: failures are reported through TableSchema.Status and Err.
func (m *Manager) GetSchema(ctx context.Context, name, table, database, schema string) core.TableSchema {
	result := m.getSchema(ctx, name, table, database, schema)
	metrics.TableLookups.WithLabelValues(result.Status.String()).Inc()
	return result
}

func (m *Manager) getSchema(ctx context.Context, name, table, database, schema string) core.TableSchema {
	e, ok := m.lookup(name)
	if !ok {
		m.logger.Error("connector not found", zap.String("connector", name))
		return core.FailedTableSchema(errors.Newf(errors.ErrorTypeNotFound, "connector %q not found", name))
	}
	if table == "" {
		m.logger.Warn("empty table name", zap.String("connector", name))
		return core.EmptyTableSchema()
	}

	ctx, cancel := m.withDeadline(logger.WithConnector(ctx, name))
	defer cancel()

	var fields map[string]core.CanonicalType
	err := e.tracer.Trace(ctx, "get_schema", func(ctx context.Context, span *observability.Span) error {
		var err error
		fields, err = e.connector.GetColumns(ctx, table, database, schema)
		span.SetAttribute("table", table)
		span.SetAttribute("columns", len(fields))
		return err
	})
	if err != nil {
		logger.FromContext(ctx, m.logger).Error("schema lookup failed",
			zap.String("table", table),
			zap.Error(err))
		return core.FailedTableSchema(err)
	}
	return core.NewTableSchema(fields)
}

// GetSchemaForMultipleTables looks up every distinct table concurrently.
// The result follows input order; duplicates keep their first position.
// A failing or panicking lookup only affects its own entry.
func (m *Manager) GetSchemaForMultipleTables(ctx context.Context, name string, tables []string, database, schema string) *SchemaSet {
	unique := dedupe(tables)
	set := NewSchemaSet(len(unique))
	metrics.BatchSize.Observe(float64(len(unique)))

	if !m.Has(name) {
		m.logger.Error("connector not found", zap.String("connector", name), zap.Int("tables", len(unique)))
		err := errors.Newf(errors.ErrorTypeNotFound, "connector %q not found", name)
		for _, t := range unique {
			set.Set(t, core.FailedTableSchema(err))
			metrics.TableLookups.WithLabelValues(core.LookupFailed.String()).Inc()
		}
		return set
	}

	limit := m.config.MaxParallelLookups
	if limit == 0 {
		if c, ok := m.Connector(name); ok {
			limit = c.Config().PoolMax
		}
	}

	results := gather.All(ctx, gather.Config{Limit: limit}, unique,
		func(ctx context.Context, table string) (core.TableSchema, error) {
			return m.GetSchema(ctx, name, table, database, schema), nil
		})

	failed := 0
	for i, r := range results {
		ts := r.Value
		if r.Err != nil {
			m.logger.Error("schema lookup panicked",
				zap.String("connector", name),
				zap.String("table", unique[i]),
				zap.Error(r.Err))
			ts = core.FailedTableSchema(r.Err)
			metrics.TableLookups.WithLabelValues(ts.Status.String()).Inc()
		}
		if ts.Failed() {
			failed++
		}
		set.Set(unique[i], ts)
	}

	m.logger.Debug("batch schema lookup finished",
		zap.String("connector", name),
		zap.Int("tables", len(unique)),
		zap.Int("failed", failed))
	return set
}

// Ping checks every registered connector concurrently and returns their
// health sorted by name. Consecutive failures accumulate across calls.
func (m *Manager) Ping(ctx context.Context) []base.HealthStatus {
	m.mu.RLock()
	names := make([]string, 0, len(m.connectors))
	entries := make(map[string]entry, len(m.connectors))
	for name, e := range m.connectors {
		names = append(names, name)
		entries[name] = e
	}
	m.mu.RUnlock()
	sort.Strings(names)

	results := gather.All(ctx, gather.Config{}, names, func(ctx context.Context, name string) (base.HealthStatus, error) {
		e := entries[name]
		var status base.HealthStatus
		_ = e.tracer.Trace(ctx, "ping", func(ctx context.Context, span *observability.Span) error {
			status = e.health.Check(ctx)
			span.SetAttribute("status", status.Status)
			return status.Err
		})
		return status, nil
	})

	out := make([]base.HealthStatus, len(results))
	for i, r := range results {
		out[i] = r.Value
		if r.Err != nil {
			out[i] = base.HealthStatus{Name: names[i], Status: base.HealthStatusUnhealthy, LastError: r.Err.Error(), Err: r.Err}
		}
	}
	return out
}

// CloseConnector closes and unregisters name. An absent name is a no-op.
func (m *Manager) CloseConnector(ctx context.Context, name string) error {
	m.mu.Lock()
	e, ok := m.connectors[name]
	delete(m.connectors, name)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	metrics.RegisteredConnectors.Dec()

	if err := e.connector.Close(ctx); err != nil {
		m.logger.Warn("error closing connector", zap.String("connector", name), zap.Error(err))
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close connector").
			WithDetail("connector", name)
	}
	m.logger.Info("connector closed", zap.String("connector", name))
	return nil
}

// CloseAllConnectors closes every registered connector concurrently. The
// registry is empty afterwards even when some closes fail.
func (m *Manager) CloseAllConnectors(ctx context.Context) error {
	m.mu.Lock()
	all := m.connectors
	m.connectors = make(map[string]entry)
	m.mu.Unlock()

	metrics.RegisteredConnectors.Sub(float64(len(all)))
	if len(all) == 0 {
		return nil
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := gather.Each(ctx, gather.Config{}, names, func(ctx context.Context, name string) error {
		if err := all[name].connector.Close(ctx); err != nil {
			m.logger.Warn("error closing connector", zap.String("connector", name), zap.Error(err))
			return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close connector").
				WithDetail("connector", name)
		}
		return nil
	})

	m.logger.Info("all connectors closed", zap.Int("count", len(names)))
	return errors.Join(errs...)
}

func dedupe(tables []string) []string {
	seen := make(map[string]struct{}, len(tables))
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
