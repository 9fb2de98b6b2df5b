package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/service"
)

func SessionsCmd() *cobra.Command {
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "Manage login sessions",
	}

	sessions.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := open()
			if err != nil {
				return err
			}
			defer db.Close(database)

			n, err := service.NewSessionService(database, cfg.SessionLifetime).PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired sessions\n", n)
			return nil
		},
	})

	return sessions
}
