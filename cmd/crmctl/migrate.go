// AngelaMos | 2026
// migrate.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/crm-backend/internal/migrate"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dryRun {
				all, err := migrate.Load()
				if err != nil {
					return err
				}
				for _, m := range all {
					fmt.Fprintln(cmd.OutOrStdout(), m.Version)
				}
				return nil
			}

			db, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits next

			applied, err := migrate.Up(cmd.Context(), db.DB, a.logger)
			if err != nil {
				return err
			}

			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "list", false, "list embedded migrations without touching the database")
	return cmd
}
