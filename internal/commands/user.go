package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/middleware"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage ledger users",
	}

	var email, fullName string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			manager, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer manager.Close()

			return runCreateUser(cmd.Context(), services.NewUserService(manager.DB()), email, fullName, cmd.OutOrStdout())
		},
	}
	create.Flags().StringVar(&email, "email", "", "user email (required)")
	_ = create.MarkFlagRequired("email")
	create.Flags().StringVar(&fullName, "name", "", "full name")

	cmd.AddCommand(create)
	return cmd
}

func newTokenCommand() *cobra.Command {
	var userID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			manager, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer manager.Close()

			if ttl == 0 {
				ttl = cfg.JWTExpirationDur
			}
			return runToken(cmd.Context(), services.NewUserService(manager.DB()), userID, cfg.JWTSecret, ttl, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user-id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_EXPIRES_IN)")

	return cmd
}

func runCreateUser(ctx context.Context, users services.UserServicer, email, fullName string, out io.Writer) error {
	user, err := users.CreateUser(ctx, email, fullName)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	_, err = fmt.Fprintln(out, user.ID)
	return err
}

func runToken(ctx context.Context, users services.UserServicer, userID, secret string, ttl time.Duration, out io.Writer) error {
	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	token, err := middleware.GenerateAccessToken(user, secret, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
