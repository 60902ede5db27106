package cmd

import (
	"fmt"

	apperr "trendseed/cli/internal/errors"

	"github.com/spf13/cobra"
)

// whoamiCmd authenticates once and shows the superuser account.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated superuser",
	Long: `The whoami command authenticates once with the configured credentials and
prints the superuser email reported by the backend. It is a quick way to check
the credentials before running seed.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		creds := credentials()
		if creds.Password == "" {
			return errNoPassword
		}
		api, err := newAPI()
		if err != nil {
			return apperr.Wrap(apperr.Config, "backend url", err)
		}
		_, account, err := authenticateOnce(cmd.Context(), cmd.ErrOrStderr(), api, creds)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "👤 Current superuser: %s\n", account)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
