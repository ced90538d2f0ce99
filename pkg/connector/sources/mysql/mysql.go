// Package mysql implements schema discovery for MySQL and MariaDB over a
// database/sql pool using SHOW TABLES and DESCRIBE.
package mysql

import (
	"context"
	"database/sql"
	"net"
	"strconv"
	"strings"
	"sync"

	driver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/base"
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/errors"
	"github.com/ajitpratap0/seaschema/pkg/logger"
)

const driverName = "mysql"

// New creates a Disconnected MySQL connector
func New(cfg config.ConnectionConfig, l *zap.Logger, opts ...base.Option) core.Connector {
	return newConnector(cfg, l, sql.Open, opts...)
}

func newConnector(cfg config.ConnectionConfig, l *zap.Logger, openDB func(driverName, dsn string) (*sql.DB, error), opts ...base.Option) *base.BaseConnector {
	l = logger.OrNop(l)
	b := &backend{
		openDB: openDB,
		logger: l.With(zap.String("component", "connector"), zap.String("kind", string(core.KindMySQL))),
	}
	return base.NewBaseConnector(core.KindMySQL, cfg, b, TypeMapper, l, opts...)
}

type backend struct {
	openDB func(driverName, dsn string) (*sql.DB, error)
	logger *zap.Logger

	mu        sync.RWMutex
	db        *sql.DB
	defaultDB string
}

func (b *backend) Open(ctx context.Context, cfg config.ConnectionConfig) error {
	db, err := b.openDB(driverName, dsn(cfg))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to open mysql pool")
	}
	db.SetMaxOpenConns(cfg.PoolMax)
	db.SetMaxIdleConns(cfg.PoolMin)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	b.mu.Lock()
	b.db = db
	b.defaultDB = cfg.Database
	b.mu.Unlock()
	return nil
}

// conn returns the pool and the database to use for a lookup. An empty
// database means neither the argument nor the config named one.
func (b *backend) conn(database string) (*sql.DB, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, "", errors.New(errors.ErrorTypeConnection, "connection pool is not open")
	}
	if database == "" {
		database = b.defaultDB
	}
	return b.db, database, nil
}

func (b *backend) ListTables(ctx context.Context, database, _ string) ([]string, error) {
	db, database, err := b.conn(database)
	if err != nil {
		return nil, err
	}
	if database == "" {
		b.logger.Error("database name is required for mysql")
		return []string{}, nil
	}

	rows, err := db.QueryContext(ctx, "SHOW TABLES FROM "+quoteIdent(database))
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

func (b *backend) DescribeTable(ctx context.Context, table, database, _ string) ([]base.Column, error) {
	db, database, err := b.conn(database)
	if err != nil {
		return nil, err
	}
	if database == "" {
		b.logger.Error("database name is required for mysql", zap.String("table", table))
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, "DESCRIBE "+quoteIdent(database)+"."+quoteIdent(table))
	if err != nil {
		if isUnknownTable(err) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	// DESCRIBE returns Field, Type, Null, Key, Default, Extra
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}

	var columns []base.Column
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to scan column row")
		}
		if len(values) < 2 {
			continue
		}
		columns = append(columns, base.Column{Name: values[0].String, NativeType: values[1].String})
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

// quoteIdent wraps an identifier in backticks, doubling embedded ones
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// isUnknownTable reports a "table doesn't exist" server error. It is
// permanent, so it is turned into an empty result instead of being retried.
func isUnknownTable(err error) bool {
	var myErr *driver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1146
	}
	return false
}

func dsn(cfg config.ConnectionConfig) string {
	c := driver.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Database
	c.Timeout = cfg.ConnectTimeout
	if len(cfg.Options) > 0 {
		c.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			c.Params[k] = v
		}
	}
	return c.FormatDSN()
}
