// Package commands implements the ledgerctl operator CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/config"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/database"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the personal finance ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newSweepCommand())
	rootCmd.AddCommand(newUserCommand())
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}

// loadConfig reads the configuration and initializes the logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*database.Manager, error) {
	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	return manager, nil
}
