package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"grantdesk/internal/cli"
	"grantdesk/internal/models"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the local user directory",
	}
	cmd.AddCommand(userUpsertCmd())
	return cmd
}

func userUpsertCmd() *cobra.Command {
	var email, firstName, lastName, role string

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Create a user or update name and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			user, err := e.users.UpsertUser(cmd.Context(), email, firstName, lastName, models.UserRole(strings.ToUpper(role)))
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
				Headers: []string{"ID", "Email", "Role"},
				Rows:    [][]string{{user.ID, user.Email, string(user.Role)}},
			}))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleStaff), "ADMIN, SUPERVISOR, FACULTY or STAFF")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
