package main

import (
	"time"

	"github.com/lorrc/sla-notifier/internal/adapters/secondary/snapshot"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		input  string
		now    string
		dryRun bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the notification pipeline once",
		Long: `Fetch the latest export, classify it, write the report, send the vendor and
internal notifications and record them in the dispatch log.`,
		Example: `  slanotifier run
  slanotifier run --input ./exports/chamados.xlsx --now 2024-03-15
  slanotifier run --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			params := ports.RunParams{DryRun: dryRun}
			if now != "" {
				t, err := time.ParseInLocation(time.DateOnly, now, a.cfg.Location())
				if err != nil {
					return err
				}
				params.Now = &t
			}

			s, err := a.buildStack(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if input != "" {
				params.Source = snapshot.NewFileSource(input, s.clock, a.logger)
			}

			summary, err := s.pipeline.Run(ctx, params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				return writeJSON(out, summary)
			}
			printSummary(out, summary)
			success(out, "run %s finished", summary.RunID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "export file to use instead of the configured source")
	cmd.Flags().StringVar(&now, "now", "", "evaluation date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify and report without sending or recording")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json")
	return cmd
}
