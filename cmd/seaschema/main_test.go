package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Seaschema v"+version)
}

func TestKindsCommand(t *testing.T) {
	out, err := execute(t, "kinds")
	require.NoError(t, err)
	assert.Equal(t,
		"  - mysql (mariadb)\n  - oracle (ora)\n  - postgresql (pg, postgres)\n",
		out)
}

func TestSchemaCommandRequiresTable(t *testing.T) {
	_, err := execute(t, "schema", "--connection", "pg_source")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--table")
}

func TestTablesCommandMissingCatalog(t *testing.T) {
	_, err := execute(t, "tables", "--connection", "pg_source",
		"--catalog", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog error")
}

func TestTablesCommandUnknownConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connections:
  - name: pg_source
    kind: postgresql
    host: localhost
    port: 5432
    username: viewer
`), 0o600))

	_, err := execute(t, "tables", "--connection", "other", "--catalog", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `connection "other" not found`)
	assert.Contains(t, err.Error(), "pg_source")
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultCatalog, s.Catalog)
	assert.Equal(t, defaultLogLevel, s.LogLevel)
	assert.Equal(t, defaultTimeout, s.Timeout)
	assert.False(t, s.Pretty)
}

func TestLoadSettingsEnvAndFlags(t *testing.T) {
	t.Setenv("SEASCHEMA_CATALOG", "/etc/seaschema/catalog.yaml")
	t.Setenv("SEASCHEMA_TIMEOUT", "30s")
	t.Setenv("SEASCHEMA_LOG_LEVEL", "debug")

	root := newRootCommand(&bytes.Buffer{})
	require.NoError(t, root.PersistentFlags().Set("log-level", "error"))
	require.NoError(t, root.PersistentFlags().Set("pretty", "true"))

	s, err := LoadSettings(root.PersistentFlags())
	require.NoError(t, err)
	assert.Equal(t, "/etc/seaschema/catalog.yaml", s.Catalog)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, "error", s.LogLevel)
	assert.True(t, s.Pretty)
}

func TestLoadSettingsRejectsUnknownFormat(t *testing.T) {
	t.Setenv("SEASCHEMA_LOG_FORMAT", "xml")
	_, err := LoadSettings(nil)
	assert.Error(t, err)
}
