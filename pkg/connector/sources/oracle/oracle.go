// Package oracle implements schema discovery for Oracle through go-ora and
// the ALL_TABLES / ALL_TAB_COLUMNS dictionary views.
package oracle

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	goora "github.com/sijms/go-ora/v2"
	"go.uber.org/zap"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/base"
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/errors"
)

const (
	driverName = "oracle"

	listTablesQuery = `SELECT table_name FROM all_tables WHERE owner = :1`

	describeTableQuery = `
		SELECT column_name, data_type
		FROM all_tab_columns
		WHERE owner = :1 AND table_name = :2
		ORDER BY column_id`
)

// ClientRuntime is the process-wide client library a pool depends on. Init
// is called before every pool creation and must be idempotent. A failing
// Init leaves the connector Disconnected.
//
// go-ora is pure Go and registers its driver when this package is imported,
// so DefaultRuntime never fails in a normal build. Replace DefaultRuntime
// with a runtime that loads or verifies native client state (wallets, an
// Instant Client) when a deployment needs one.
type ClientRuntime interface {
	Init() error
}

// driverRuntime checks once that the go-ora driver is registered. Only a
// build that drops the go-ora import can make it fail.
type driverRuntime struct {
	once sync.Once
	err  error
}

func (r *driverRuntime) Init() error {
	r.once.Do(func() {
		for _, d := range sql.Drivers() {
			if d == driverName {
				return
			}
		}
		r.err = errors.New(errors.ErrorTypeConfig, "oracle client driver is not registered")
	})
	return r.err
}

// DefaultRuntime is shared by every Oracle connector in the process
var DefaultRuntime ClientRuntime = &driverRuntime{}

// New creates a Disconnected Oracle connector
func New(cfg config.ConnectionConfig, l *zap.Logger, opts ...base.Option) core.Connector {
	return newConnector(cfg, l, DefaultRuntime, sql.Open, opts...)
}

func newConnector(cfg config.ConnectionConfig, l *zap.Logger, runtime ClientRuntime, openDB func(driverName, dsn string) (*sql.DB, error), opts ...base.Option) *base.BaseConnector {
	b := &backend{runtime: runtime, openDB: openDB}
	return base.NewBaseConnector(core.KindOracle, cfg, b, TypeMapper, l, opts...)
}

type backend struct {
	runtime ClientRuntime
	openDB  func(driverName, dsn string) (*sql.DB, error)

	mu    sync.RWMutex
	db    *sql.DB
	owner string
}

func (b *backend) Open(ctx context.Context, cfg config.ConnectionConfig) error {
	if err := b.runtime.Init(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "oracle client runtime unavailable")
	}

	db, err := b.openDB(driverName, dsn(cfg))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to open oracle pool")
	}
	db.SetMaxOpenConns(cfg.PoolMax)
	db.SetMaxIdleConns(cfg.PoolMin)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	b.mu.Lock()
	b.db = db
	b.owner = strings.ToUpper(cfg.Username)
	b.mu.Unlock()
	return nil
}

// conn returns the pool and the owner to query. A schema argument is used
// as given; otherwise the owner is the upper-cased username.
func (b *backend) conn(schema string) (*sql.DB, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, "", errors.New(errors.ErrorTypeConnection, "connection pool is not open")
	}
	if schema == "" {
		schema = b.owner
	}
	return b.db, schema, nil
}

func (b *backend) ListTables(ctx context.Context, _, schema string) ([]string, error) {
	db, owner, err := b.conn(schema)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listTablesQuery, owner)
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
	db, owner, err := b.conn(schema)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, describeTableQuery, owner, strings.ToUpper(table))
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
	db, _, err := b.conn("")
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (b *backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// dsn builds an oracle:// URL addressed by service name, falling back to
// the database name when no service name is configured.
func dsn(cfg config.ConnectionConfig) string {
	service := cfg.ServiceName
	if service == "" {
		service = cfg.Database
	}
	var options map[string]string
	if len(cfg.Options) > 0 {
		options = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			options[k] = v
		}
	}
	return goora.BuildUrl(cfg.Host, cfg.Port, service, cfg.Username, cfg.Password, options)
}
