// AngelaMos | 2026
// keygen.go

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/crm-backend/internal/auth"
)

func newKeygenCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the ES256 key pair used to sign access tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, pub := a.cfg.JWT.PrivateKeyPath, a.cfg.JWT.PublicKeyPath

			if !force {
				for _, p := range []string{priv, pub} {
					if _, err := os.Stat(p); err == nil {
						return fmt.Errorf("%s exists, pass --force to replace it", p)
					} else if !errors.Is(err, fs.ErrNotExist) {
						return err
					}
				}
			}

			if err := auth.GenerateKeyPair(priv, pub); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", priv, pub)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	return cmd
}
