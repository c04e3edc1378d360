package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/sessiongate/internal/interfaces/cli/migrate"
	"github.com/orris-inc/sessiongate/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sessiongate",
		Short: "sessiongate - session and token validity engine",
		Long:  `sessiongate decides whether a presented credential is still the current one for its user and platform.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
