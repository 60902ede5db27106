// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"path/filepath"

	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/importer"
	"trendseed/cli/internal/schema"
	"trendseed/cli/internal/seeding"
	"trendseed/cli/internal/source"
	"trendseed/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// errNoPassword is returned before any request when no layer supplies a password.
var errNoPassword = apperr.New(apperr.Config,
	"no superuser password: pass --password, set POCKETBASE_ADMIN_PASSWORD or run 'trendseed credentials set'")

// seedCmd provisions the collection and imports the source file into it.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Recreate the collection and import rows from a CSV or XLSX file",
	Long: `The seed command authenticates as superuser, deletes the collection if it exists,
creates it again from the built-in definition and imports every data row of the
source file. The first row is a header and is ignored; column 1 is the main
category, column 2 the sub-category and the remaining non-empty cells are the
queries.

A row that fails to import is reported and skipped. Authentication and schema
failures abort the run before any row is written.`,
	Example: `  trendseed seed --file trends.csv
  trendseed seed --file trends.xlsx --sheet "2025" --rate 20`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path := cfg.SourcePath()
		src, err := source.Open(path, source.Options{Sheet: cfg.Source.Sheet})
		if err != nil {
			return err
		}
		defer src.Close()

		creds := credentials()
		if creds.Password == "" {
			return errNoPassword
		}
		api, err := newAPI()
		if err != nil {
			return apperr.Wrap(apperr.Config, "backend url", err)
		}

		def := schema.SearchTrends(schema.Options{Name: cfg.Collection, OpenRules: cfg.OpenRules})
		handler := seeding.NewHandler()
		renderer := seeding.NewRenderer(handler.Progress, terminal.IsInteractive())
		handler.Subscribe(renderer.Render)

		pterm.Info.Printfln("Seeding %s from %s", def.Name, filepath.Base(path))
		wf := seeding.NewWorkflow(api, creds, seeding.Options{
			Collection: def,
			Source:     src,
			SourceName: path,
			Auth:       authOptions(),
			Import:     []importer.Option{importer.WithRate(cfg.Import.Rate)},
		}, handler.Handle)

		sum, runErr := wf.Run(ctx)
		if p, err := seeding.SaveReport(sum); err != nil {
			pterm.Debug.Printfln("run report not saved: %v", err)
		} else {
			pterm.Debug.Printfln("run report: %s", p)
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringP("file", "f", "", "Source file, .csv or .xlsx (default trends.csv)")
	seedCmd.Flags().String("sheet", "", "XLSX worksheet (default: the active sheet)")
	seedCmd.Flags().Bool("open-rules", false, "Make every API rule of the collection public")
	seedCmd.Flags().Float64("rate", 0, "Maximum records created per second (0 = unlimited)")
}
