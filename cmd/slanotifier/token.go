package main

import (
	"fmt"

	"github.com/lorrc/sla-notifier/internal/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	var operator string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token for the ops API",
		Example: `  slanotifier token --operator maria
  curl -H "Authorization: Bearer $(slanotifier token --operator maria)" localhost:8080/api/v1/runs/latest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tm := auth.NewTokenManager(a.cfg.JWT.Secret, a.cfg.JWT.Issuer, a.cfg.JWT.TokenTTL)
			token, err := tm.GenerateToken(operator)
			if err != nil {
				return err
			}

			a.logger.Info("operator token issued", "operator", operator, "ttl", a.cfg.JWT.TokenTTL)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "", "operator name carried by the token")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}
