package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"grantdesk/internal/cli"
	"grantdesk/internal/services"
)

func archiveCmd() *cobra.Command {
	var (
		fiscalYear  string
		percent     string
		rollForward bool
	)

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Close a fiscal year and record carry-forward",
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

			in := services.ArchiveInput{FiscalYear: fiscalYear, RollForward: rollForward}
			if percent != "" {
				pct, err := decimal.NewFromString(percent)
				if err != nil {
					return fmt.Errorf("invalid --percent %q", percent)
				}
				in.CarryForwardPercent = &pct
			}

			archives := services.NewArchiveService(e.db(), e.authz, services.NewAuditService(e.db()))
			result, err := archives.ArchiveYearEnd(cmd.Context(), actor, in)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), cli.RenderArchive(result))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fiscalYear, "fiscal-year", "y", "", "Fiscal year to close, e.g. 2024-25")
	cmd.Flags().StringVar(&percent, "percent", "", "Carry-forward percent of remaining funds (default 100)")
	cmd.Flags().BoolVar(&rollForward, "roll-forward", false, "Allocate carried amounts in the next fiscal year")
	_ = cmd.MarkFlagRequired("fiscal-year")
	return cmd
}
