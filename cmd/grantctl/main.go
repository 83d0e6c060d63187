// Command grantctl is the budget office's operator tool: it closes fiscal
// years, prints summaries, seeds users and mints access tokens.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"grantdesk/internal/config"
	"grantdesk/internal/database"
	"grantdesk/internal/logger"
	"grantdesk/internal/policy"
	"grantdesk/internal/services"
)

var flagAs string

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "grantctl",
		Short:         "Grantdesk budget office tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagAs, "as", "", "Email of the user to act as")
	root.AddCommand(archiveCmd(), summaryCmd(), tokenCmd(), userCmd())
	return root
}

// env is the state every command shares: an open database and the
// access policy.
type env struct {
	cfg     *config.Config
	manager *database.Manager
	authz   *policy.Authorizer
	users   services.UserServicer
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	table, err := policy.LoadFile(cfg.PolicyFile)
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("failed to load access policy: %w", err)
	}

	db := manager.DB()
	return &env{
		cfg:     cfg,
		manager: manager,
		authz:   policy.NewAuthorizer(table, services.NewMembership(db)),
		users:   services.NewUserService(db),
	}, nil
}

func (e *env) db() *gorm.DB { return e.manager.DB() }

func (e *env) close() {
	if err := e.manager.Close(); err != nil {
		logger.Get().Warnw("Failed to close database", "error", err)
	}
}

// actor resolves --as to a principal. Commands still go through the
// access policy, so the operator only gets what that user's role allows.
func (e *env) actor(cmd *cobra.Command) (policy.Principal, error) {
	if flagAs == "" {
		return policy.Principal{}, fmt.Errorf("--as is required")
	}
	user, err := e.users.GetUserByEmail(cmd.Context(), flagAs)
	if err != nil {
		return policy.Principal{}, fmt.Errorf("resolving %s: %w", flagAs, err)
	}
	return policy.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}
