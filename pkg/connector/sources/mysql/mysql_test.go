package mysql

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/base"
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
)

func testConfig(database string) config.ConnectionConfig {
	return config.ConnectionConfig{
		Host:     "mysql.internal",
		Port:     3306,
		Username: "reader",
		Password: "pw",
		Database: database,
	}
}

func newMockConnector(t *testing.T, cfg config.ConnectionConfig, l *zap.Logger) (*base.BaseConnector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	openDB := func(name, dsn string) (*sql.DB, error) {
		assert.Equal(t, driverName, name)
		return db, nil
	}
	rp := &base.RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}
	return newConnector(cfg, l, openDB, base.WithRetryPolicy(rp)), mock
}

func TestGetTablesUsesConfiguredDatabase(t *testing.T) {
	c, mock := newMockConnector(t, testConfig("shop"), nil)

	mock.ExpectQuery("SHOW TABLES FROM `shop`").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_shop"}).AddRow("orders").AddRow("users"))

	tables, err := c.GetTables(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTablesArgumentOverridesConfig(t *testing.T) {
	c, mock := newMockConnector(t, testConfig("shop"), nil)

	mock.ExpectQuery("SHOW TABLES FROM `analytics`").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_analytics"}).AddRow("events"))

	tables, err := c.GetTables(context.Background(), "analytics", "ignored")
	require.NoError(t, err)
	assert.Equal(t, []string{"events"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupWithoutDatabaseLogsAndReturnsEmpty(t *testing.T) {
	obsCore, logs := observer.New(zap.ErrorLevel)
	c, mock := newMockConnector(t, testConfig(""), zap.New(obsCore))

	tables, err := c.GetTables(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, tables)

	cols, err := c.GetColumns(context.Background(), "users", "", "")
	require.NoError(t, err)
	assert.Empty(t, cols)

	assert.Equal(t, 2, logs.FilterMessage("database name is required for mysql").Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetColumnsDescribesQuotedTable(t *testing.T) {
	c, mock := newMockConnector(t, testConfig("shop"), nil)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("id", "int(11)", "NO", "PRI", nil, "auto_increment").
		AddRow("total", "bigint(20)", "YES", "", nil, "").
		AddRow("name", "varchar(255)", "YES", "", nil, "").
		AddRow("created", "datetime", "YES", "", nil, "").
		AddRow("flag", "tinyint(1)", "YES", "", "0", "")
	mock.ExpectQuery("DESCRIBE `shop`.`order``items`").WillReturnRows(rows)

	cols, err := c.GetColumns(context.Background(), "order`items", "", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]core.CanonicalType{
		"id":      core.TypeInt,
		"total":   core.TypeLong,
		"name":    core.TypeString,
		"created": core.TypeTimestamp,
		"flag":    core.TypeString,
	}, cols)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetColumnsUnknownTableIsEmptyWithoutRetry(t *testing.T) {
	c, mock := newMockConnector(t, testConfig("shop"), nil)

	mock.ExpectQuery("DESCRIBE `shop`.`missing`").
		WillReturnError(&driver.MySQLError{Number: 1146, Message: "Table 'shop.missing' doesn't exist"})

	cols, err := c.GetColumns(context.Background(), "missing", "", "")
	require.NoError(t, err)
	assert.Empty(t, cols)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTablesRetriesThenFails(t *testing.T) {
	c, mock := newMockConnector(t, testConfig("shop"), nil)

	cause := stderrors.New("invalid connection")
	for i := 0; i < 3; i++ {
		mock.ExpectQuery("SHOW TABLES FROM `shop`").WillReturnError(cause)
	}

	tables, err := c.GetTables(context.Background(), "", "")
	require.Error(t, err)
	assert.Nil(t, tables)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTablesRecoversAfterTransientFailure(t *testing.T) {
	c, mock := newMockConnector(t, testConfig("shop"), nil)

	mock.ExpectQuery("SHOW TABLES FROM `shop`").WillReturnError(stderrors.New("bad connection"))
	mock.ExpectQuery("SHOW TABLES FROM `shop`").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_shop"}).AddRow("users"))

	tables, err := c.GetTables(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseClosesPool(t *testing.T) {
	c, mock := newMockConnector(t, testConfig("shop"), nil)
	require.True(t, c.Connect(context.Background()))

	mock.ExpectClose()
	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, core.StateClosed, c.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	cfg := testConfig("shop").WithDefaults()
	cfg.Options = map[string]string{"charset": "utf8mb4", "sql_mode": "ANSI"}

	rendered := dsn(cfg)
	assert.Contains(t, rendered, "charset=utf8mb4")

	parsed, err := driver.ParseDSN(rendered)
	require.NoError(t, err)
	assert.Equal(t, "reader", parsed.User)
	assert.Equal(t, "pw", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "mysql.internal:3306", parsed.Addr)
	assert.Equal(t, "shop", parsed.DBName)
	assert.Equal(t, config.DefaultConnectTimeout, parsed.Timeout)
	assert.Equal(t, "ANSI", parsed.Params["sql_mode"])
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`users`", quoteIdent("users"))
	assert.Equal(t, "`a``b`", quoteIdent("a`b"))
}

func TestMapType(t *testing.T) {
	tests := []struct {
		native string
		want   core.CanonicalType
	}{
		{"int", core.TypeInt},
		{"INT(11)", core.TypeInt},
		{"int unsigned", core.TypeInt},
		{"bigint(20)", core.TypeLong},
		{"varchar(64)", core.TypeString},
		{"char(2)", core.TypeString},
		{"text", core.TypeString},
		{"double", core.TypeDouble},
		{"float", core.TypeDouble},
		{"decimal(10,2)", core.TypeDecimal},
		{"date", core.TypeDate},
		{"datetime", core.TypeTimestamp},
		{"timestamp", core.TypeTimestamp},
		{"bool", core.TypeBoolean},
		{"boolean", core.TypeBoolean},
		{"time", core.TypeTime},
		{"tinyint(1)", core.TypeString},
		{"json", core.TypeString},
		{"blob", core.TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			assert.Equal(t, tt.want, MapType(tt.native))
		})
	}
}
