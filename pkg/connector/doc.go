// Package connector groups the database connectors used for schema discovery.
//
// # Architecture Overview
//
//   - core: the Connector interface, lifecycle states, canonical types and
//     the TableSchema result.
//
//   - base: BaseConnector, which owns the lifecycle shared by every backend
//     (lazy connect, retry around listing/describe calls, metrics, logging).
//     A backend only implements the small Backend interface.
//
//   - sources: the postgresql (pgx), mysql (go-sql-driver) and oracle
//     (go-ora) backends, each with its own type mapper.
//
//   - registry: a case-insensitive kind to constructor table. Backends
//     register themselves from init.
//
// # Adding a Backend
//
//	type backend struct{ db *sql.DB }
//
//	func (b *backend) Open(ctx context.Context, cfg config.ConnectionConfig) error { ... }
//	func (b *backend) ListTables(ctx context.Context, database, schema string) ([]string, error) { ... }
//	func (b *backend) DescribeTable(ctx context.Context, table, database, schema string) ([]base.Column, error) { ... }
//	func (b *backend) Ping(ctx context.Context) error { ... }
//	func (b *backend) Close() error { ... }
//
//	func New(cfg config.ConnectionConfig, l *zap.Logger, opts ...base.Option) core.Connector {
//	    return base.NewBaseConnector("sqlite", cfg, &backend{}, TypeMapper, l, opts...)
//	}
//
//	func init() {
//	    registry.RegisterConnector("sqlite", New)
//	}
package connector
