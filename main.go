// Command jobboard serves the job board API and loads fixture data.
//
//	jobboard serve             start the HTTP server on $PORT
//	jobboard seed [file]       load companies and jobs (bundled sample by default)
//
// Settings come from the environment and an optional .env file; see the
// config package for names and defaults. Use cmd/migrate to manage the
// schema.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skryldev/jobboard/api"
	"github.com/Skryldev/jobboard/config"
	"github.com/Skryldev/jobboard/db"
	"github.com/Skryldev/jobboard/logging"
	"github.com/Skryldev/jobboard/migrations"
	"github.com/Skryldev/jobboard/seed"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("jobboard failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jobboard",
		Short:         "Job board API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newSeedCommand())
	return root
}

// ─────────────────────────────────────────────────────────────────────────────
// serve
// ─────────────────────────────────────────────────────────────────────────────

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	stats := db.NewQueryStats()
	d, err := connect(ctx, cfg, logger, stats)
	if err != nil {
		return err
	}
	defer d.Close()

	app := api.New(api.Config{DB: d, Stats: stats, Logger: logger})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()
	logger.Info("jobboard: listening", slog.Int("port", cfg.Port), slog.String("driver", cfg.Database.Driver))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("jobboard: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// seed
// ─────────────────────────────────────────────────────────────────────────────

func newSeedCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Load companies and jobs from a JSON fixture",
		Long: `Load companies and jobs from a JSON fixture in one transaction.
Without a file the bundled sample is loaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runSeed(cmd.Context(), cfg, logger, path, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations first")
	return cmd
}

func runSeed(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string, migrate bool) error {
	d, err := connect(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer d.Close()

	if migrate {
		if err := migrations.Up(d); err != nil {
			return err
		}
	}

	res, err := seed.LoadFile(ctx, d, path)
	if err != nil {
		return err
	}
	logger.Info("jobboard: seeded", slog.Int("companies", res.Companies), slog.Int("jobs", res.Jobs))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared
// ─────────────────────────────────────────────────────────────────────────────

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	return cfg, logger, nil
}

// connect opens the store, retrying while the server is still coming up.
// stats may be nil.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger, stats *db.QueryStats) (*db.DB, error) {
	hooks := []db.Hook{
		db.NewLogHook(db.LogHookConfig{Logger: logger, SlowQueryThreshold: cfg.Database.SlowQuery}),
	}
	if stats != nil {
		hooks = append(hooks, db.NewMetricsHook(stats))
	}

	var d *db.DB
	err := db.WithRetry(ctx, db.RetryConfig{MaxAttempts: cfg.Database.ConnectAttempts, Delay: time.Second}, func() error {
		var err error
		d, err = cfg.Database.Open(hooks...)
		if err != nil {
			logger.Warn("jobboard: connect failed", slog.Any("error", err))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
