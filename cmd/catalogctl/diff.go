package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/pfcatalog/internal/core"
	"github.com/JonMunkholm/pfcatalog/internal/diff"
)

func newDiffCmd() *cobra.Command {
	var (
		use     string
		picks   []string
		choices string
		all     bool
		output  string
	)
	cmd := &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Compare two items field by field and merge them",
		Long: `Diff compares two JSON or YAML objects field by field.

Without choices it writes the differing fields as a CSV report (--all for
every field). The report's choice column can be edited and passed back with
--choices. With --use, --pick or --choices it writes the merged object as
JSON instead. Unchosen fields take the right value.`,
		Example: `  catalogctl diff old.json new.json
  catalogctl diff old.json new.yaml --use left --pick DisplayName=right
  catalogctl diff old.json new.json --choices edited.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			right, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			svc := core.NewService(nil, nil, core.Options{})
			info, err := svc.StartDiff(left, right)
			if err != nil {
				return err
			}

			merging := use != "" || len(picks) > 0 || choices != ""
			if use != "" {
				if err := svc.ChooseAll(info.ID, use); err != nil {
					return err
				}
			}
			for _, p := range picks {
				field, side, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("--pick %q: want Field=left or Field=right", p)
				}
				if err := svc.Choose(info.ID, field, side); err != nil {
					return err
				}
			}
			if choices != "" {
				data, err := readInput(cmd, choices)
				if err != nil {
					return err
				}
				if _, err := svc.ApplyChoices(info.ID, bytes.NewReader(data)); err != nil {
					return err
				}
			}

			var out bytes.Buffer
			switch {
			case merging:
				res, err := svc.FinishDiff(cmd.Context(), info.ID, false)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(res.Fields, "", "  ")
				if err != nil {
					return err
				}
				out.Write(data)
				out.WriteByte('\n')
			case all:
				rows, err := svc.DiffRows(info.ID, false)
				if err != nil {
					return err
				}
				if err := diff.WriteReport(&out, rows); err != nil {
					return err
				}
			default:
				if err := svc.WriteDiffReport(info.ID, &out); err != nil {
					return err
				}
			}
			return writeOutput(cmd, output, out.Bytes())
		},
	}
	cmd.Flags().StringVar(&use, "use", "", "choose this side (left or right) for every field")
	cmd.Flags().StringArrayVar(&picks, "pick", nil, "choose a side for one field, as Field=left or Field=right (repeatable)")
	cmd.Flags().StringVar(&choices, "choices", "", "apply the choice column of an edited diff report")
	cmd.Flags().BoolVar(&all, "all", false, "report every field, not only differing ones")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
