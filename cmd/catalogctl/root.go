package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/pfcatalog/internal/config"
	"github.com/JonMunkholm/pfcatalog/internal/core"
	"github.com/JonMunkholm/pfcatalog/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Convert, compare and push PlayFab catalog files",
		Long: `catalogctl works on the StoreCatalog.csv files exported from PlayFab
Game Manager. It decodes them to JSON, encodes JSON back to CSV, compares two
items field by field and pushes a catalog file to a title.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	root.AddCommand(newDecodeCmd())
	root.AddCommand(newEncodeCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newPushCmd())
	return root
}

// initConfig loads .env and sets up logging on stderr so command output on
// stdout stays clean.
func initConfig() error {
	_ = godotenv.Load()

	var lc config.LoggingConfig
	if err := config.LoadSection("logging", &lc); err != nil {
		return err
	}
	slog.SetDefault(logging.New(os.Stderr, lc.Level, lc.Format))
	return nil
}

// readInput reads a file, or stdin for "-", with any BOM removed and
// invalid UTF-8 replaced.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var r io.Reader
	var size int64
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		r = f
	}

	data, err := io.ReadAll(core.WrapForImport(r, size))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
