package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
)

func newDecodeCmd() *cobra.Command {
	var (
		output   string
		validate bool
	)
	cmd := &cobra.Command{
		Use:   "decode <file.csv>",
		Short: "Decode a catalog CSV to a JSON array of records",
		Long: `Decode reads a StoreCatalog.csv ("-" for stdin) and writes its records as
JSON. Rows with too few columns are skipped and reported on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			rep, err := catalog.DecodeReport(string(data))
			if err != nil {
				return err
			}
			for _, line := range rep.SkippedLines {
				fmt.Fprintf(cmd.ErrOrStderr(), "line %d: expected %d columns, skipped\n", line, catalog.NumColumns)
			}
			if validate {
				if err := catalog.Validate(rep.Records); err != nil {
					return err
				}
			}

			records := rep.Records
			if records == nil {
				records = []catalog.Record{}
			}
			out, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, append(out, '\n'))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSON to this file instead of stdout")
	cmd.Flags().BoolVar(&validate, "validate", false, "fail if any record breaks the catalog rules")
	return cmd
}
