package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/registry"
	"github.com/ajitpratap0/seaschema/pkg/json"
	"github.com/ajitpratap0/seaschema/pkg/logger"
	"github.com/ajitpratap0/seaschema/pkg/observability"
	"github.com/ajitpratap0/seaschema/pkg/schema"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "seaschema",
		Short: "Seaschema - schema discovery across relational databases",
		Long: `Seaschema connects to PostgreSQL, MySQL and Oracle databases described in a
connection catalog, lists their tables and prints table schemas using one
canonical type vocabulary.`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.PersistentFlags().String("catalog", defaultCatalog, "Path to the connection catalog YAML file")
	root.PersistentFlags().String("log-level", defaultLogLevel, "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", defaultLogFormat, "Log encoding (json, console)")
	root.PersistentFlags().Duration("timeout", defaultTimeout, "Overall command timeout")
	root.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	root.PersistentFlags().Bool("tracing", false, "Print OpenTelemetry spans to stderr")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Seaschema v%s\n", version)
			fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "kinds",
		Short: "List supported database kinds",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			aliases := registry.GetRegistry().Aliases()
			for _, kind := range registry.Kinds() {
				var names []string
				for alias, target := range aliases {
					if target == kind {
						names = append(names, alias)
					}
				}
				if len(names) == 0 {
					fmt.Fprintf(w, "  - %s\n", kind)
					continue
				}
				sort.Strings(names)
				fmt.Fprintf(w, "  - %s (%s)\n", kind, strings.Join(names, ", "))
			}
		},
	})

	root.AddCommand(newTablesCommand(root), newSchemaCommand(root), newPingCommand(root))
	return root
}

func newTablesCommand(root *cobra.Command) *cobra.Command {
	var connection, database, schemaName string

	cmd := &cobra.Command{
		Use:     "tables",
		Short:   "List tables of a catalog connection",
		Example: `  seaschema tables --catalog seaschema.yaml --connection pg_source --schema public`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, connection, func(ctx context.Context, s *session) error {
				tables, err := s.manager.GetTables(ctx, connection, database, schemaName)
				if err != nil {
					return fmt.Errorf("failed to list tables: %w", err)
				}
				return s.print(cmd.OutOrStdout(), tables)
			})
		},
	}

	cmd.Flags().StringVarP(&connection, "connection", "c", "", "Catalog connection name (required)")
	cmd.Flags().StringVar(&database, "database", "", "Database to list (defaults to the connection's database)")
	cmd.Flags().StringVar(&schemaName, "schema", "", "Schema or owner to list")
	_ = cmd.MarkFlagRequired("connection")
	return cmd
}

func newSchemaCommand(root *cobra.Command) *cobra.Command {
	var connection, database, schemaName string
	var tables []string

	cmd := &cobra.Command{
		Use:     "schema",
		Short:   "Print canonical schemas of one or more tables",
		Example: `  seaschema schema --connection pg_source --table users --table orders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables = append(tables, args...)
			if len(tables) == 0 {
				return fmt.Errorf("at least one --table is required")
			}
			return withSession(cmd, root, connection, func(ctx context.Context, s *session) error {
				set := s.manager.GetSchemaForMultipleTables(ctx, connection, tables, database, schemaName)
				if failed := set.Failed(); len(failed) > 0 {
					s.log.Warn("some schema lookups failed", zap.Strings("tables", failed))
				}
				return s.print(cmd.OutOrStdout(), set)
			})
		},
	}

	cmd.Flags().StringVarP(&connection, "connection", "c", "", "Catalog connection name (required)")
	cmd.Flags().StringSliceVarP(&tables, "table", "t", nil, "Table name (repeatable)")
	cmd.Flags().StringVar(&database, "database", "", "Database holding the tables")
	cmd.Flags().StringVar(&schemaName, "schema", "", "Schema or owner holding the tables")
	_ = cmd.MarkFlagRequired("connection")
	return cmd
}

func newPingCommand(root *cobra.Command) *cobra.Command {
	var connection string

	cmd := &cobra.Command{
		Use:     "ping",
		Short:   "Check that a catalog connection is reachable",
		Example: `  seaschema ping --connection pg_source`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, connection, func(ctx context.Context, s *session) error {
				statuses := s.manager.Ping(ctx)
				if err := s.print(cmd.OutOrStdout(), statuses); err != nil {
					return err
				}
				for _, st := range statuses {
					if !st.Healthy() {
						return fmt.Errorf("connection %s is %s: %s", st.Name, st.Status, st.LastError)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&connection, "connection", "c", "", "Catalog connection name (required)")
	_ = cmd.MarkFlagRequired("connection")
	return cmd
}

type session struct {
	settings *Settings
	log      *zap.Logger
	manager  *schema.Manager
}

func (s *session) print(w io.Writer, v interface{}) error {
	indent := ""
	if s.settings.Pretty {
		indent = "  "
	}
	return json.MarshalToWriter(w, v, indent)
}

// withSession loads settings and the catalog, registers the named
// connection, runs fn and closes every connector afterwards
func withSession(cmd *cobra.Command, root *cobra.Command, connection string, fn func(ctx context.Context, s *session) error) error {
	settings, err := LoadSettings(root.PersistentFlags())
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:       settings.LogLevel,
		Encoding:    settings.LogFormat,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("component", "seaschema-cli"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	if settings.Tracing {
		tcfg := observability.DefaultConfig()
		tcfg.ServiceVersion = version
		tcfg.ExporterType = "stdout"
		tcfg.Writer = os.Stderr
		if err := observability.Initialize(ctx, tcfg); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() { _ = observability.Shutdown(context.Background()) }()
	}

	catalog, err := config.LoadCatalog(settings.Catalog)
	if err != nil {
		return fmt.Errorf("catalog error: %w", err)
	}
	nc, ok := catalog.Lookup(connection)
	if !ok {
		return fmt.Errorf("connection %q not found in %s (known: %s)",
			connection, settings.Catalog, strings.Join(catalog.Names(), ", "))
	}

	manager := schema.NewManager(
		schema.WithConfig(catalog.ManagerOrDefault()),
		schema.WithLogger(log),
	)
	defer func() {
		if err := manager.CloseAllConnectors(context.Background()); err != nil {
			log.Warn("failed to close connectors", zap.Error(err))
		}
	}()

	log.Info("connecting", zap.Stringer("connection", nc), zap.Stringer("endpoint", nc.ConnectionConfig))
	if !manager.CreateConnector(ctx, nc.Kind, nc.Name, nc.ConnectionConfig) {
		return fmt.Errorf("failed to connect %s", nc)
	}

	return fn(ctx, &session{settings: settings, log: log, manager: manager})
}
