package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lorrc/sla-notifier/internal/adapters/secondary/snapshot"
	"github.com/lorrc/sla-notifier/internal/infrastructure/clock"
	"github.com/lorrc/sla-notifier/internal/sample"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		out  string
		rows int
		seed int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic export for local testing",
		Example: `  slanotifier generate
  slanotifier generate --out exports/chamados.csv --rows 200 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !snapshot.IsSupported(out) {
				return fmt.Errorf("output must end in .csv or .xlsx: %s", out)
			}

			opts := sample.DefaultOptions(clock.NewReal(a.cfg.Location()).Now())
			opts.Rows = rows
			opts.Seed = seed
			opts.Columns = a.rules.ColumnMap()

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := sample.Write(out, sample.Generate(opts), f); err != nil {
				return err
			}

			success(cmd.OutOrStdout(), "wrote %d rows to %s", rows, out)
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "input_teste.xlsx", "output file (.csv or .xlsx)")
	cmd.Flags().IntVar(&rows, "rows", 20, "number of tickets")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 for a random one")
	return cmd
}
