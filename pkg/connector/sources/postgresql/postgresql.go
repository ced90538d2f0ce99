// Package postgresql implements schema discovery for PostgreSQL through a
// pgx connection pool and information_schema.
package postgresql

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/base"
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/errors"
)

// DefaultSchema is used when no schema is given
const DefaultSchema = "public"

const (
	listTablesQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		ORDER BY table_name`

	describeTableQuery = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`
)

// pgQuerier is the subset of *pgxpool.Pool used for discovery
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

type poolFactory func(ctx context.Context, cfg config.ConnectionConfig) (pgQuerier, error)

// New creates a Disconnected PostgreSQL connector
func New(cfg config.ConnectionConfig, logger *zap.Logger, opts ...base.Option) core.Connector {
	return newConnector(cfg, logger, newPool, opts...)
}

func newConnector(cfg config.ConnectionConfig, logger *zap.Logger, factory poolFactory, opts ...base.Option) *base.BaseConnector {
	return base.NewBaseConnector(core.KindPostgreSQL, cfg, &backend{newPool: factory}, TypeMapper, logger, opts...)
}

type backend struct {
	newPool poolFactory

	mu   sync.RWMutex
	pool pgQuerier
}

func (b *backend) Open(ctx context.Context, cfg config.ConnectionConfig) error {
	pool, err := b.newPool(ctx, cfg)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.pool = pool
	b.mu.Unlock()
	return nil
}

func (b *backend) querier() (pgQuerier, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.pool == nil {
		return nil, errors.New(errors.ErrorTypeConnection, "connection pool is not open")
	}
	return b.pool, nil
}

func (b *backend) ListTables(ctx context.Context, _, schema string) ([]string, error) {
	q, err := b.querier()
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = DefaultSchema
	}

	rows, err := q.Query(ctx, listTablesQuery, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to scan table row")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (b *backend) DescribeTable(ctx context.Context, table, _, schema string) ([]base.Column, error) {
	q, err := b.querier()
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = DefaultSchema
	}

	rows, err := q.Query(ctx, describeTableQuery, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []base.Column
	for rows.Next() {
		var col base.Column
		if err := rows.Scan(&col.Name, &col.NativeType); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to scan column row")
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

func (b *backend) Ping(ctx context.Context) error {
	q, err := b.querier()
	if err != nil {
		return err
	}
	return q.Ping(ctx)
}

func (b *backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
	return nil
}

// newPool creates the pgx pool and verifies it with a ping, since
// pgxpool.NewWithConfig does not dial.
func newPool(ctx context.Context, cfg config.ConnectionConfig) (pgQuerier, error) {
	poolConfig, err := pgxpool.ParseConfig(connString(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse connection settings")
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// connString renders cfg as a postgres:// URL. Options are passed through as
// query parameters (sslmode, application_name, ...).
func connString(cfg config.ConnectionConfig) string {
	q := url.Values{}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	q.Set("sslmode", cfg.Option("sslmode", "prefer"))
	q.Set("pool_min_conns", strconv.Itoa(cfg.PoolMin))
	q.Set("pool_max_conns", strconv.Itoa(cfg.PoolMax))
	if cfg.ConnectTimeout > 0 {
		secs := int(cfg.ConnectTimeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}
