// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"os"

	"trendseed/cli/internal/auth"
	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/logging"
	"trendseed/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var skipCheck bool

// credentialsCmd groups the keychain credential subcommands.
var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage superuser credentials stored in the OS keychain",
	Long: `Stored credentials are used when neither flags nor environment variables
provide the superuser identity and password.`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Verify and store superuser credentials",
	Long: `The set command takes the identity and password from --identity and --password
(or their environment variables) and prompts for whatever is missing. The
credentials are checked against the backend before they are saved, unless
--no-check is given.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		creds := auth.Credentials{Identity: cfg.Identity, Password: cfg.Password}
		if creds.Identity == "" {
			prompt := fmt.Sprintf("Superuser email [%s]: ", auth.DefaultIdentity)
			id, err := terminal.ReadLine(os.Stdin, prompt)
			if err != nil {
				return apperr.Wrap(apperr.Config, "read identity", err)
			}
			if terminal.IsInteractive() {
				terminal.ClearPreviousLines(len(prompt) + len(id))
			}
			if id == "" {
				id = auth.DefaultIdentity
			}
			creds.Identity = id
		}
		if creds.Password == "" {
			pw, err := terminal.ReadSecret("Superuser password: ")
			if err != nil {
				if errors.Is(err, terminal.ErrNotInteractive) {
					return errNoPassword
				}
				return apperr.Wrap(apperr.Config, "read password", err)
			}
			creds.Password = pw
		}
		if creds.Password == "" {
			return errNoPassword
		}

		if !skipCheck {
			api, err := newAPI()
			if err != nil {
				return apperr.Wrap(apperr.Config, "backend url", err)
			}
			if _, _, err := authenticateOnce(cmd.Context(), cmd.ErrOrStderr(), api, creds); err != nil {
				pterm.Error.Println("Credentials were rejected and have not been saved.")
				return err
			}
		}

		if err := auth.SaveCredentials(creds); err != nil {
			pterm.Error.Println("Secure storage is not available on this system.")
			return apperr.Wrap(apperr.Config, "save credentials", err)
		}
		pterm.Success.Printfln("Credentials for %s saved", creds.Identity)
		return nil
	},
}

var credentialsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored identity with the password masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := auth.LoadCredentials()
		if err != nil {
			return apperr.Wrap(apperr.Config, "load credentials", err)
		}
		if c.Identity == "" && c.Password == "" {
			pterm.Info.Println("No credentials stored. Run 'trendseed credentials set'.")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "identity: %s\n", c.Identity)
		fmt.Fprintf(out, "password: %s\n", logging.MaskSecret(c.Password))
		return nil
	},
}

var credentialsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.ClearCredentials(); err != nil {
			return apperr.Wrap(apperr.Config, "clear credentials", err)
		}
		pterm.Success.Println("Stored credentials removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsShowCmd, credentialsClearCmd)
	credentialsSetCmd.Flags().BoolVar(&skipCheck, "no-check", false, "Save without authenticating first")
}
