package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lorrc/sla-notifier/internal/config"
	"github.com/lorrc/sla-notifier/internal/infrastructure/logging"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	rules   config.Rules
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "slanotifier",
		Short: "SLA follow-up notifications for helpdesk exports",
		Long: `slanotifier reads the latest helpdesk ticket export, decides who owns each
pending ticket, and notifies the vendor about overdue tickets and internal
reviewers about tickets waiting on them. Every notification sent is recorded
in the dispatch log.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file (overrides CONFIG_FILE)")

	root.AddCommand(
		newRunCmd(a),
		newClassifyCmd(a),
		newServeCmd(a),
		newMigrateCmd(a),
		newTokenCmd(a),
		newGenerateCmd(a),
	)
	return root
}

func (a *app) load() error {
	if a.cfgFile != "" {
		if err := os.Setenv("CONFIG_FILE", a.cfgFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stderr,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(a.logger)

	rules, err := config.LoadRules(cfg.Rules.File)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	a.rules = rules
	return nil
}
