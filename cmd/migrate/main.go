// Command migrate applies or rolls back the job board schema.
//
// The embedded migrations for the URL's dialect are used unless
// MIGRATIONS_PATH points at a directory on disk.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/Skryldev/jobboard/config"
	"github.com/Skryldev/jobboard/logging"
	"github.com/Skryldev/jobboard/migrations"
)

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		slog.Error("migrate failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the job board schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Manage the job board schema.

Environment:
  DATABASE_URL      Required. postgres://, mysql:// or sqlite3:// URL.
  MIGRATIONS_PATH   Optional directory of migration files; the embedded
                    set for the URL's dialect is used when unset.`,
	}
	root.SetOut(out)

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrate(func(m *migrate.Migrate, _ []string) error {
				if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("up: %w", err)
				}
				slog.Info("migrations: up completed")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down [N]",
			Short: "Roll back N migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: withMigrate(func(m *migrate.Migrate, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("down: invalid steps argument %q", args[0])
					}
					steps = n
				}
				if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("down: %w", err)
				}
				slog.Info("migrations: down completed", slog.Int("steps", steps))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrate(func(m *migrate.Migrate, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
					return fmt.Errorf("version: %w", err)
				}
				fmt.Fprintf(out, "version: %d  dirty: %v\n", v, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force V",
			Short: "Set the schema version without running migrations (clears dirty state)",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrate(func(m *migrate.Migrate, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("force: invalid version %q", args[0])
				}
				if err := m.Force(v); err != nil {
					return fmt.Errorf("force: %w", err)
				}
				slog.Info("migrations: forced", slog.Int("version", v))
				return nil
			}),
		},
		newDropCommand(in, out),
	)
	return root
}

func newDropCommand(in io.Reader, out io.Writer) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table (development only)",
		Args:  cobra.NoArgs,
		RunE: withMigrate(func(m *migrate.Migrate, _ []string) error {
			if !yes {
				fmt.Fprintln(out, "WARNING: drop will destroy all tables. Type 'yes' to confirm:")
				line, _ := bufio.NewReader(in).ReadString('\n')
				if strings.TrimSpace(line) != "yes" {
					fmt.Fprintln(out, "aborted")
					return nil
				}
			}
			if err := m.Drop(); err != nil {
				return fmt.Errorf("drop: %w", err)
			}
			slog.Info("migrations: all tables dropped")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

// withMigrate opens a migrate instance for the configured database around fn.
func withMigrate(fn func(m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.New(logging.Config{Level: logging.ParseLevel(cfg.Log.Level), Format: cfg.Log.Format})

		m, err := open(cfg)
		if err != nil {
			return err
		}
		defer m.Close()
		m.Log = &migrateLogger{}

		return fn(m, args)
	}
}

func open(cfg *config.Config) (*migrate.Migrate, error) {
	dbURL := cfg.Database.URL
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	if cfg.MigrationsPath != "" {
		m, err := migrate.New("file://"+cfg.MigrationsPath, dbURL)
		if err != nil {
			return nil, fmt.Errorf("migration init failed: %w", err)
		}
		return m, nil
	}

	dialect, err := dialectOf(dbURL)
	if err != nil {
		return nil, err
	}
	src, err := migrations.Source(dialect)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("migration init failed: %w", err)
	}
	return m, nil
}

// dialectOf maps a database URL scheme to an embedded migration set.
func dialectOf(dbURL string) (string, error) {
	// mysql URLs carry tcp(host:port) which net/url rejects, so only the
	// scheme is split off.
	scheme, _, ok := strings.Cut(dbURL, "://")
	if !ok {
		return "", fmt.Errorf("invalid DATABASE_URL: missing scheme")
	}
	switch scheme {
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", scheme)
	}
}

// ─────────────────────────────────────────────────────────────────────────────

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...any) {
	slog.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
func (l *migrateLogger) Verbose() bool { return false }
