// AngelaMos | 2026
// seed.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load statuses, sources, users and teams from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck // read-only

			plan, err := seed.Parse(f)
			if err != nil {
				return err
			}

			db, err := a.database(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits next

			var report *seed.Report
			err = db.WithinTx(cmd.Context(), func(tx core.DBTX) error {
				report, err = seed.Apply(cmd.Context(), seed.NewStores(tx), plan, a.logger)
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"created %d status(es), %d source(s), %d user(s), %d team(s); %d team link(s) ensured\n",
				report.Statuses, report.Sources, report.Users, report.Teams, report.Links)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "seed.yaml", "seed file")
	return cmd
}
