package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantdesk/internal/cli"
	"grantdesk/internal/services"
)

func summaryCmd() *cobra.Command {
	var fiscalYear string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print allocation and utilization per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			actor, err := e.actor(cmd)
			if err != nil {
				return err
			}

			ledger := services.NewLedgerService(e.db(), e.authz, services.NewAuditService(e.db()), services.LedgerOptions{
				AllowOverrun: e.cfg.LedgerAllowOverrun,
			})
			summary, err := ledger.Summary(cmd.Context(), actor, fiscalYear)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), cli.RenderSummary(summary))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fiscalYear, "fiscal-year", "y", "", "Fiscal year, e.g. 2024-25")
	_ = cmd.MarkFlagRequired("fiscal-year")
	return cmd
}
