package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd prints the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration with secrets masked",
	Long: `The config command prints the settings every other command would use, after
flags, environment, .env files and the config file have been applied. The
password is masked. The output is valid trendseed.yaml.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if cfg.File != "" {
			fmt.Fprintf(out, "# from %s\n", cfg.File)
		} else {
			fmt.Fprintln(out, "# no config file; defaults, environment and flags")
		}
		_, err = out.Write(b)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
