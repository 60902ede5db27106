// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface of trendseed.
// It provisions the search_trends collection on a PocketBase backend, imports
// the rows of a CSV or XLSX file into it, and reads the result back. Commands
// are built with Cobra; settings are resolved once per invocation by the
// config package before any command runs.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"trendseed/cli/internal/config"
	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/httperrors"
	"trendseed/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	showVersion bool
	cfgFile     string

	// cfg is the effective configuration of the running command.
	cfg config.Config
)

// flagKeys maps flag names to configuration keys. Flags a command does not
// define are skipped.
var flagKeys = map[string]string{
	"url":        config.KeyURL,
	"identity":   config.KeyIdentity,
	"password":   config.KeyPassword,
	"collection": config.KeyCollection,
	"timeout":    config.KeyTimeout,
	"verbose":    config.KeyVerbose,
	"file":       config.KeySourceFile,
	"sheet":      config.KeySourceSheet,
	"open-rules": config.KeyOpenRules,
	"rate":       config.KeyImportRate,
	"per-page":   config.KeyVerifyPerPage,
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "trendseed",
	Short: "Provision and seed the search_trends collection on PocketBase",
	Long: `trendseed authenticates as a PocketBase superuser, (re)creates the search_trends
collection and imports search-trend rows from a CSV or XLSX file into it.

Settings come from flags, TRENDSEED_* / POCKETBASE_* environment variables,
.env.local and .env, and an optional trendseed.yaml, in that order.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd)
			return nil
		}
		return cmd.Help()
	},
}

// loadConfig resolves the configuration for the command about to run.
func loadConfig(cmd *cobra.Command, args []string) error {
	flags := make(map[string]*pflag.Flag, len(flagKeys))
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			flags[key] = f
		}
	}
	c, err := config.Load(config.Options{File: cfgFile, Flags: flags})
	if err != nil {
		return err
	}
	cfg = c
	if cfg.Verbose {
		pterm.EnableDebugMessages()
	}
	if cfg.File != "" {
		pterm.Debug.Printfln("config file: %s", cfg.File)
	}
	return nil
}

// Execute runs the CLI application. Interrupts cancel the command context;
// any error is printed with a hint and exits with status 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func reportError(err error) {
	if apperr.IsKind(err, apperr.Transport) {
		err = httperrors.FormatNetworkError(err, "contacting PocketBase", httperrors.ExtractHostFromURL(cfg.URL))
	}
	pterm.Error.Println(logging.PresentError("", err))
	if hint := logging.Hint(err); hint != "" {
		pterm.Info.Println(hint)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version and backend health")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./trendseed.yaml or $XDG_CONFIG_HOME/trendseed/trendseed.yaml)")
	pf.String("url", config.DefaultURL, "PocketBase base URL")
	pf.String("identity", "", "Superuser email")
	pf.String("password", "", "Superuser password")
	pf.String("collection", config.DefaultCollection, "Collection name")
	pf.Duration("timeout", 0, "Per-request timeout (default 30s)")
	pf.BoolP("verbose", "v", false, "Enable debug output")
}
