package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
)

func newEncodeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "encode <file.json>",
		Short: "Encode a JSON array of records as a catalog CSV",
		Long: `Encode reads a JSON array of records ("-" for stdin), checks it against the
record schema and the catalog rules, and writes a CSV Game Manager can import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			records, err := catalog.DecodeJSON(data)
			if err != nil {
				return err
			}
			if err := catalog.Validate(records); err != nil {
				return err
			}
			return writeOutput(cmd, output, []byte(catalog.Encode(records)))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV to this file instead of stdout")
	return cmd
}
