package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forgelabs/leadgrid/internal/enrich"
	"github.com/forgelabs/leadgrid/internal/lead"
)

func newEnrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Verify one batch of stored leads against lookup providers",
		Long: `Selects the oldest unverified leads without an email address and walks
each through the configured provider chain. Leads the providers cannot
resolve stay unverified and are retried in later batches.`,
		RunE: runEnrich,
	}
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	providers, err := buildProviders(a)
	if err != nil {
		return err
	}

	o := enrich.New(a.store, providers, a.cfg.Enrich.RatePerSec, a.cfg.Enrich.BatchSize, a.log)
	report, err := o.Run(ctx)
	if err != nil {
		return fmt.Errorf("run enrichment batch: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "selected=%d verified=%d no_match=%d failed=%d secondary=%d\n",
		report.Selected, report.Verified, report.NoMatch, report.Failed, report.Secondary)
	return nil
}

func buildProviders(a *app) ([]lead.Provider, error) {
	var providers []lead.Provider
	for _, name := range a.cfg.Enrich.Providers {
		switch name {
		case "hunter":
			if a.cfg.Enrich.HunterAPIKey == "" {
				return nil, fmt.Errorf("enrich.hunter_api_key is required for the hunter provider")
			}
			providers = append(providers, enrich.NewHunter(a.cfg.Enrich.HunterAPIKey))
		case "pattern":
			providers = append(providers, enrich.NewPattern())
		default:
			return nil, fmt.Errorf("unknown enrichment provider %q", name)
		}
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("enrich.providers must not be empty")
	}
	return providers, nil
}
