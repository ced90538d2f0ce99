package base

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/errors"
)

type fakeBackend struct {
	openErr   error
	openDelay time.Duration
	opens     int32
	closes    int32

	listErrs []error
	listCall int32
	tables   []string

	columns []Column
	descErr error
}

func (f *fakeBackend) Open(ctx context.Context, cfg config.ConnectionConfig) error {
	atomic.AddInt32(&f.opens, 1)
	if f.openDelay > 0 {
		time.Sleep(f.openDelay)
	}
	return f.openErr
}

func (f *fakeBackend) ListTables(ctx context.Context, database, schema string) ([]string, error) {
	n := int(atomic.AddInt32(&f.listCall, 1))
	if n <= len(f.listErrs) && f.listErrs[n-1] != nil {
		return nil, f.listErrs[n-1]
	}
	return f.tables, nil
}

func (f *fakeBackend) DescribeTable(ctx context.Context, table, database, schema string) ([]Column, error) {
	if f.descErr != nil {
		return nil, f.descErr
	}
	return f.columns, nil
}

func (f *fakeBackend) Ping(ctx context.Context) error { return nil }

func (f *fakeBackend) Close() error {
	atomic.AddInt32(&f.closes, 1)
	return nil
}

var testMapper = core.TypeMapperFunc(func(native string) core.CanonicalType {
	switch strings.ToLower(native) {
	case "integer":
		return core.TypeInt
	case "text":
		return core.TypeString
	default:
		return core.FallbackType
	}
})

func testConfig() config.ConnectionConfig {
	return config.ConnectionConfig{Host: "db.internal", Port: 5432, Username: "reader", Database: "app"}
}

func newTestConnector(b *fakeBackend, l *zap.Logger) *BaseConnector {
	rp := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	return NewBaseConnector(core.KindPostgreSQL, testConfig(), b, testMapper, l, WithRetryPolicy(rp))
}

func TestBaseConnector_ConnectLifecycle(t *testing.T) {
	b := &fakeBackend{}
	bc := newTestConnector(b, nil)

	assert.Equal(t, core.StateDisconnected, bc.State())
	assert.True(t, bc.Connect(context.Background()))
	assert.Equal(t, core.StateConnected, bc.State())

	// Already connected: no second pool
	assert.True(t, bc.Connect(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.opens))
	require.NoError(t, bc.Ping(context.Background()))

	require.NoError(t, bc.Close(context.Background()))
	require.NoError(t, bc.Close(context.Background()))
	assert.Equal(t, core.StateClosed, bc.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.closes))

	assert.False(t, bc.Connect(context.Background()))
	assert.Error(t, bc.Ping(context.Background()))
}

func TestBaseConnector_ConnectFailureLogsAndReturnsFalse(t *testing.T) {
	obsCore, logs := observer.New(zap.ErrorLevel)
	b := &fakeBackend{openErr: stderrors.New("connection refused")}
	bc := newTestConnector(b, zap.New(obsCore))

	assert.False(t, bc.Connect(context.Background()))
	assert.Equal(t, core.StateDisconnected, bc.State())
	assert.Equal(t, 1, logs.FilterMessage("failed to connect").Len())

	// A later call may try again
	b.openErr = nil
	assert.True(t, bc.Connect(context.Background()))
}

func TestBaseConnector_InvalidConfigNeverOpens(t *testing.T) {
	b := &fakeBackend{}
	bc := NewBaseConnector(core.KindMySQL, config.ConnectionConfig{Port: 3306}, b, testMapper, nil)

	assert.False(t, bc.Connect(context.Background()))
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.opens))
}

func TestBaseConnector_LazyConnectFailureYieldsEmpty(t *testing.T) {
	b := &fakeBackend{openErr: stderrors.New("no route to host")}
	bc := newTestConnector(b, nil)

	tables, err := bc.GetTables(context.Background(), "", "")
	require.NoError(t, err)
	assert.NotNil(t, tables)
	assert.Empty(t, tables)

	cols, err := bc.GetColumns(context.Background(), "users", "", "")
	require.NoError(t, err)
	assert.NotNil(t, cols)
	assert.Empty(t, cols)
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.listCall))
}

func TestBaseConnector_ConcurrentLazyConnectOpensOnce(t *testing.T) {
	b := &fakeBackend{openDelay: 5 * time.Millisecond, tables: []string{"users"}}
	bc := newTestConnector(b, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tables, err := bc.GetTables(context.Background(), "", "")
			assert.NoError(t, err)
			assert.Equal(t, []string{"users"}, tables)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&b.opens))
}

func TestBaseConnector_GetTablesRetriesTransientFailures(t *testing.T) {
	b := &fakeBackend{
		listErrs: []error{stderrors.New("reset"), stderrors.New("reset")},
		tables:   []string{"orders", "users"},
	}
	bc := newTestConnector(b, nil)

	tables, err := bc.GetTables(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
	assert.Equal(t, int32(3), atomic.LoadInt32(&b.listCall))
}

func TestBaseConnector_GetTablesExhaustedRetriesReturnsError(t *testing.T) {
	cause := stderrors.New("reset")
	b := &fakeBackend{listErrs: []error{cause, cause, cause, cause}}
	bc := newTestConnector(b, nil)

	tables, err := bc.GetTables(context.Background(), "app", "public")
	require.Error(t, err)
	assert.Nil(t, tables)
	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQuery))
	assert.Equal(t, int32(3), atomic.LoadInt32(&b.listCall))
}

func TestBaseConnector_GetTablesNilBecomesEmpty(t *testing.T) {
	bc := newTestConnector(&fakeBackend{}, nil)

	tables, err := bc.GetTables(context.Background(), "", "")
	require.NoError(t, err)
	assert.NotNil(t, tables)
	assert.Empty(t, tables)
}

func TestBaseConnector_GetColumnsMapsTypes(t *testing.T) {
	b := &fakeBackend{columns: []Column{
		{Name: "id", NativeType: "INTEGER"},
		{Name: "name", NativeType: "text"},
		{Name: "location", NativeType: "geometry"},
	}}
	bc := newTestConnector(b, nil)

	cols, err := bc.GetColumns(context.Background(), "users", "", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]core.CanonicalType{
		"id":       core.TypeInt,
		"name":     core.TypeString,
		"location": core.TypeString,
	}, cols)
}

func TestBaseConnector_ClosedConnectorRejectsLookups(t *testing.T) {
	b := &fakeBackend{}
	bc := newTestConnector(b, nil)
	require.NoError(t, bc.Close(context.Background()))

	// Never opened, so nothing to release
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.closes))

	_, err := bc.GetTables(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connector is closed")

	_, err = bc.GetColumns(context.Background(), "users", "", "")
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.opens))
}

func TestBaseConnector_ConfigIsACopy(t *testing.T) {
	cfg := testConfig()
	cfg.Options = map[string]string{"sslmode": "disable"}
	bc := NewBaseConnector(core.KindPostgreSQL, cfg, &fakeBackend{}, testMapper, nil)

	cfg.Options["sslmode"] = "require"
	cfg.Host = "elsewhere"

	got := bc.Config()
	assert.Equal(t, "db.internal", got.Host)
	assert.Equal(t, "disable", got.Options["sslmode"])
	assert.Equal(t, config.DefaultPoolMax, got.PoolMax)
	assert.Equal(t, core.KindPostgreSQL, bc.Kind())
}
