package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/resto-rate/api/cmd/admin/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "admin",
		Short:        "Administrative tasks for the resto-rate API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.SessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
