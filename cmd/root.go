// Package cmd defines the CLI commands for the leadgrid executable.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgelabs/leadgrid/internal/config"
	"github.com/forgelabs/leadgrid/internal/lead"
	"github.com/forgelabs/leadgrid/internal/logging"
	"github.com/forgelabs/leadgrid/internal/metrics"
	"github.com/forgelabs/leadgrid/internal/store/postgres"
	"github.com/forgelabs/leadgrid/internal/store/sqlite"
)

// app bundles the services every subcommand needs.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	store lead.Store
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

var cfgFile string

// newApp loads config, builds the logger and opens the store. A variable so
// tests can substitute fakes.
var newApp = func(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	metrics.Init()
	return &app{cfg: cfg, log: log, store: store}, nil
}

func openStore(ctx context.Context, cfg config.Config) (lead.Store, error) {
	switch cfg.DB.Driver {
	case "postgres":
		s, err := postgres.New(ctx, postgres.Config{DSN: cfg.DB.DSN})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.New(cfg.DB.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadgrid",
		Short: "B2B industrial lead scraper and enrichment pipeline",
		Long: `leadgrid walks Indian B2B directory sites for industrial supplier
listings, normalizes and deduplicates them into a lead store, and verifies
contact details through external enrichment providers.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: environment only)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newEnrichCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}
