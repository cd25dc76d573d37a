package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgelabs/leadgrid/internal/export"
	"github.com/forgelabs/leadgrid/internal/lead"
)

func newExportCmd() *cobra.Command {
	var (
		name     string
		location string
		industry string
		source   string
		since    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored leads to CSV (and optionally XLSX)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			f := lead.Filter{Location: location, Industry: industry}
			if source != "" {
				src, ok := lead.ParseSource(source)
				if !ok {
					return fmt.Errorf("unknown source %q", source)
				}
				f.Source = src
			}
			if since != "" {
				ts, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("parse --since: %w", err)
				}
				f.ScrapedAfter = ts
			}

			e, err := export.New(a.store, a.cfg.Export.Dir)
			if err != nil {
				return err
			}
			path, n, err := e.CSV(cmd.Context(), name, f)
			if err != nil {
				return fmt.Errorf("export csv: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d leads to %s\n", n, path)

			if a.cfg.Export.XLSX {
				path, _, err := e.XLSX(cmd.Context(), name, f)
				if err != nil {
					return fmt.Errorf("export xlsx: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "leads", "base name for output files")
	cmd.Flags().StringVar(&location, "location", "", "filter by canonical location")
	cmd.Flags().StringVar(&industry, "industry", "", "filter by industry")
	cmd.Flags().StringVar(&source, "source", "", "filter by source site")
	cmd.Flags().StringVar(&since, "since", "", "only leads scraped after this date (YYYY-MM-DD)")
	return cmd
}
