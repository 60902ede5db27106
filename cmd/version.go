// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"time"

	"trendseed/cli/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

// healthTimeout bounds the backend probe of the version output.
const healthTimeout = 5 * time.Second

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version and backend health",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd)
	},
}

// printVersion prints the CLI version and the backend health message. An
// unreachable backend is reported, not returned.
func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "trendseed %s\n", Version)

	api, err := newAPI()
	if err != nil {
		fmt.Fprintf(out, "backend %s: %s\n", logging.Mask(cfg.URL), err)
		return
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()
	msg, err := api.Health(ctx)
	if err != nil {
		fmt.Fprintf(out, "backend %s: unreachable\n", logging.Mask(cfg.URL))
		return
	}
	fmt.Fprintf(out, "backend %s: %s\n", logging.Mask(cfg.URL), msg)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
