package main

import (
	"os"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/commands"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
)

func main() {
	defer logger.Sync()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
