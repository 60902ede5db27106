package cmd

import (
	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/verify"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// verifyCmd prints the collection definition and its first records.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Print the collection schema and its first record",
	Long: `The verify command authenticates once and reads the collection back: first its
definition, then the first page of records. Both are printed as indented JSON.
A failing read is reported without affecting the other one and does not change
the exit status.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		creds := credentials()
		if creds.Password == "" {
			return errNoPassword
		}
		api, err := newAPI()
		if err != nil {
			return apperr.Wrap(apperr.Config, "backend url", err)
		}

		token, _, err := authenticateOnce(ctx, cmd.ErrOrStderr(), api, creds)
		if err != nil {
			return err
		}

		v := &verify.Verifier{
			API:        api,
			Out:        cmd.OutOrStdout(),
			Collection: cfg.Collection,
			PerPage:    cfg.Verify.PerPage,
		}
		if rep := v.Run(ctx, token); !rep.OK() {
			pterm.Warning.Println("Verification finished with errors")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().Int("per-page", 0, "Records to fetch (default 1)")
}
