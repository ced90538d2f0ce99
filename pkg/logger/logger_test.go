package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "debug", Encoding: "console"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	_, err = New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := WithConnector(context.Background(), "pg_source")
	ctx = context.WithValue(ctx, RequestIDKey, "req-1")

	FromContext(ctx, base).Info("lookup")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "pg_source", fields["connector"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
