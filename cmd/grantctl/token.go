package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantdesk/internal/middleware"
)

func tokenCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API access token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			user, err := e.users.GetUserByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", email, err)
			}

			token, err := middleware.GenerateAccessToken(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email of the token holder")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
