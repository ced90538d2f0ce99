package sources_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/connector/registry"
	_ "github.com/ajitpratap0/seaschema/pkg/connector/sources"
)

func TestAllBackendsRegistered(t *testing.T) {
	assert.Equal(t, []string{"mysql", "oracle", "postgresql"}, registry.Kinds())

	cfg := config.ConnectionConfig{Host: "localhost", Port: 1, Username: "u"}
	tests := []struct {
		kind string
		want core.Kind
	}{
		{"postgresql", core.KindPostgreSQL},
		{"Postgres", core.KindPostgreSQL},
		{"pg", core.KindPostgreSQL},
		{"MYSQL", core.KindMySQL},
		{"mariadb", core.KindMySQL},
		{"oracle", core.KindOracle},
		{"ORA", core.KindOracle},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			c := registry.Create(tt.kind, cfg, nil)
			require.NotNil(t, c)
			assert.Equal(t, tt.want, c.Kind())
			assert.Equal(t, core.StateDisconnected, c.State())
		})
	}

	assert.Nil(t, registry.Create("mongodb", cfg, nil))
}
