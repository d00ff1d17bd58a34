package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
	"github.com/JonMunkholm/pfcatalog/internal/config"
	"github.com/JonMunkholm/pfcatalog/internal/core"
	"github.com/JonMunkholm/pfcatalog/internal/playfab"
)

func newPushCmd() *cobra.Command {
	var (
		version      string
		setAsDefault bool
		dryRun       bool
		strict       bool
	)
	cmd := &cobra.Command{
		Use:   "push <file.csv>",
		Short: "Replace a PlayFab catalog version with a catalog CSV",
		Long: `Push decodes and validates a catalog CSV, then replaces the catalog version
on the title. Prices already set in PlayFab are kept. Rows with too few
columns are skipped and reported on stderr unless --strict is set.

Credentials come from PLAYFAB_TITLE_ID and PLAYFAB_SECRET_KEY (or the
[playfab] table of the PFCATALOG_CONFIG file).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cc config.CatalogConfig
			if err := config.LoadSection("catalog", &cc); err != nil {
				return err
			}
			if version == "" {
				version = cc.DefaultVersion
			}
			if cmd.Flags().Changed("set-default") {
				cc.SetAsDefaultCatalog = setAsDefault
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			rep, err := catalog.DecodeReport(string(data))
			if err != nil {
				return err
			}
			if strict && len(rep.SkippedLines) > 0 {
				return fmt.Errorf("%d rows have too few columns (first at line %d)", len(rep.SkippedLines), rep.SkippedLines[0])
			}
			for _, line := range rep.SkippedLines {
				fmt.Fprintf(cmd.ErrOrStderr(), "line %d: expected %d columns, skipped\n", line, catalog.NumColumns)
			}
			if err := catalog.Validate(rep.Records); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d records valid for catalog version %s\n", len(rep.Records), version)
				return nil
			}

			var pc config.PlayFabConfig
			if err := config.LoadSection("playfab", &pc); err != nil {
				return err
			}
			client, err := playfab.NewClient(playfab.Options{
				TitleID:    pc.TitleID,
				SecretKey:  pc.SecretKey,
				BaseURL:    pc.BaseURL,
				Timeout:    pc.Timeout,
				MaxRetries: pc.MaxRetries,
			})
			if err != nil {
				return err
			}

			svc := core.NewService(nil, client, core.Options{
				CatalogVersion:      version,
				SetAsDefaultCatalog: cc.SetAsDefaultCatalog,
			})
			res, err := svc.PushRecords(cmd.Context(), rep.Records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d items to %s catalog %s in %s\n",
				res.Items, client.TitleID(), res.CatalogVersion, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "catalog-version", "", "catalog version to replace (default from CATALOG_VERSION, else Main)")
	cmd.Flags().BoolVar(&setAsDefault, "set-default", false, "make the pushed version the title's default catalog")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without contacting PlayFab")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any row has too few columns")
	return cmd
}
