package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lorrc/sla-notifier/internal/adapters/secondary/snapshot"
	"github.com/lorrc/sla-notifier/internal/infrastructure/clock"
	"github.com/spf13/cobra"
)

func newClassifyCmd(a *app) *cobra.Command {
	var (
		input  string
		now    string
		output string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show how an export would be partitioned, without sending anything",
		Example: `  slanotifier classify --input chamados.csv
  slanotifier classify --input chamados.xlsx --now 2024-03-15 --output yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			at := clock.NewReal(a.cfg.Location()).Now()
			if now != "" {
				t, err := time.ParseInLocation(time.DateOnly, now, a.cfg.Location())
				if err != nil {
					return err
				}
				at = t
			}

			f, err := os.Open(input)
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := snapshot.Read(input, f)
			if err != nil {
				return err
			}

			result, err := a.newEnrichment().Classify(cmd.Context(), records, at)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				return writeJSON(out, result.Cohorts)
			case "yaml":
				return writeYAML(out, result.Cohorts)
			case "table":
				printTickets(out, "VENDOR", result.Cohorts.Vendor)
				printTickets(out, "INTERNAL", result.Cohorts.Internal)
				printTickets(out, "UNKNOWN", result.Cohorts.Unknown)
				fmt.Fprintf(out, "\n%d resolved ticket(s) omitted\n", len(result.Cohorts.Resolved))
				printUnmapped(out, "status", result.UnmappedStatuses)
				printUnmapped(out, "category", result.UnmappedCategories)
				return nil
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "export file (.csv or .xlsx)")
	cmd.Flags().StringVar(&now, "now", "", "evaluation date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json, yaml")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
