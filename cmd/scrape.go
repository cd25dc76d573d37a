package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgelabs/leadgrid/internal/archive"
	"github.com/forgelabs/leadgrid/internal/clock/system"
	"github.com/forgelabs/leadgrid/internal/config"
	"github.com/forgelabs/leadgrid/internal/fetch"
	"github.com/forgelabs/leadgrid/internal/fetch/headless"
	"github.com/forgelabs/leadgrid/internal/lead"
	"github.com/forgelabs/leadgrid/internal/normalize"
	"github.com/forgelabs/leadgrid/internal/parse"
	"github.com/forgelabs/leadgrid/internal/planner"
	"github.com/forgelabs/leadgrid/internal/search"
	"github.com/forgelabs/leadgrid/internal/worker"
)

func newScrapeCmd() *cobra.Command {
	var startPos int
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape pass over the location/category/site grid",
		Long: `Works through the deterministic search grid, one rate-limited request
at a time, and upserts every extracted lead into the store. The grid order
is fixed, so an interrupted run can resume with --start-pos.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, startPos)
		},
	}
	cmd.Flags().IntVar(&startPos, "start-pos", 0, "grid position to resume from")
	return cmd
}

func runScrape(cmd *cobra.Command, startPos int) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sites := make([]lead.Source, 0, len(a.cfg.Scraper.Sources))
	for _, name := range a.cfg.Scraper.Sources {
		src, ok := lead.ParseSource(name)
		if !ok {
			return fmt.Errorf("unknown scraper source %q", name)
		}
		sites = append(sites, src)
	}

	gate := fetch.NewGate("scrape", a.cfg.Scraper.RatePerSec)
	robots := fetch.NewRobotsEnforcer(true, a.cfg.Scraper.UserAgent, a.log)
	fetcher := fetch.New(fetch.Config{
		UserAgent:  a.cfg.Scraper.UserAgent,
		Timeout:    a.cfg.HTTP.Timeout(),
		MaxRetries: a.cfg.HTTP.MaxRetries,
		Backoff:    a.cfg.HTTP.Backoff(),
	}, gate, robots, system.NewSleeper(), a.log)

	var opts []worker.Option
	if a.cfg.Headless.Enabled {
		renderer, err := headless.New(headless.Config{
			MaxParallel: a.cfg.Headless.MaxParallel,
			UserAgent:   a.cfg.Scraper.UserAgent,
		})
		if err != nil {
			return fmt.Errorf("build headless renderer: %w", err)
		}
		defer renderer.Close()
		opts = append(opts, worker.WithHeadless(renderer, headless.NewDetector(a.cfg.Headless.BodyThreshold)))
	}
	if a.cfg.Archive.Enabled {
		sink, err := archive.NewFSSink(a.cfg.Archive.Dir)
		if err != nil {
			return fmt.Errorf("build archive sink: %w", err)
		}
		opts = append(opts, worker.WithArchiver(sink))
	}
	if seeder := buildSeeder(a.cfg.Search); seeder != nil {
		a.log.Info("search-seeded discovery enabled", zap.String("provider", seeder.Name()))
		opts = append(opts, worker.WithSeeder(seeder))
	}

	runner := worker.NewRunner(fetcher, parse.Default(), normalize.New(system.New()),
		a.store, a.cfg.Scraper.Workers, a.log, opts...)

	plan := planner.New(sites, a.cfg.Scraper.PerComboCap)
	plan.Seek(startPos)
	a.log.Info("scrape starting",
		zap.Int("tasks", plan.Len()-startPos),
		zap.Int("start_pos", startPos),
		zap.Int("workers", a.cfg.Scraper.Workers),
	)

	summary, err := runner.Run(ctx, plan)
	if err != nil {
		a.log.Warn("scrape interrupted", zap.Int("resume_pos", plan.Pos()), zap.Error(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"fetched=%d parsed=%d normalized=%d inserted=%d merged=%d rejected=%d blocked=%d\n",
		summary.Fetched, summary.Parsed, summary.Normalized,
		summary.Inserted, summary.Merged, summary.Rejected, summary.Blocked)
	return nil
}

// buildSeeder picks the first configured search provider with an API key, or
// nil when seeding is disabled.
func buildSeeder(cfg config.SearchConfig) lead.SearchProvider {
	if !cfg.Enabled {
		return nil
	}
	for _, name := range cfg.Providers {
		switch name {
		case "serper":
			if cfg.SerperAPIKey != "" {
				return search.NewSerper(cfg.SerperAPIKey, cfg.ResultsPerQry)
			}
		case "serpapi":
			if cfg.SerpAPIKey != "" {
				return search.NewSerpAPI(cfg.SerpAPIKey, cfg.ResultsPerQry)
			}
		}
	}
	return nil
}
