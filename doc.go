// Package seaschema discovers table schemas across PostgreSQL, MySQL and
// Oracle databases and reports them in one canonical type vocabulary.
//
// # Architecture
//
// A schema.Manager owns named connectors. Each connector holds one pooled
// connection to a single database and answers two questions: which tables
// exist, and what are the columns of a table. Native column types are mapped
// to a fixed set of canonical types:
//
//	int long short float double decimal string boolean date timestamp time bytes
//
// Anything a backend mapper does not recognize becomes "string".
//
// Packages:
//
//   - pkg/config: connection and manager settings, YAML catalog loading
//   - pkg/connector/core: the Connector interface and canonical types
//   - pkg/connector/base: shared connector lifecycle, retry policy, health checks
//   - pkg/connector/sources/...: the postgresql, mysql and oracle backends
//   - pkg/connector/registry: kind to constructor lookup
//   - pkg/schema: the Manager and ordered SchemaSet results
//   - pkg/errors, pkg/logger, pkg/metrics, pkg/observability, pkg/json: ambient stack
//
// # Quick Start
//
//	m := schema.NewManager(schema.WithLogger(log))
//	defer m.CloseAllConnectors(ctx)
//
//	ok := m.CreateConnector(ctx, "postgresql", "pg_source", config.ConnectionConfig{
//	    Host:     "localhost",
//	    Port:     5432,
//	    Username: "viewer",
//	    Password: os.Getenv("PG_PASSWORD"),
//	    Database: "account",
//	})
//	if !ok {
//	    return errors.New("cannot reach pg_source")
//	}
//
//	tables, err := m.GetTables(ctx, "pg_source", "", "public")
//	set := m.GetSchemaForMultipleTables(ctx, "pg_source", tables, "", "public")
//
// # Failure Model
//
// Connection failures are logged and reported as false. Listing and describe
// calls are retried three times with exponential backoff (2s, 4s, capped at
// 10s). A batch lookup never fails as a whole: a table whose lookup failed
// is returned as {"fields": {}} and marked with core.LookupFailed.
//
// # CLI
//
// cmd/seaschema exposes the same operations over a YAML catalog:
//
//	seaschema tables --catalog seaschema.yaml --connection pg_source
//	seaschema schema --catalog seaschema.yaml --connection pg_source -t users -t orders
package seaschema
