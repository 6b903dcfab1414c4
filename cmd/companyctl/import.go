package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JonMunkholm/companies/internal/core"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		detail   bool
		failFast bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE|DIR...",
		Short: "Import registry CSV exports",
		Long: "Imports each file through the same importer the HTTP upload uses. " +
			"Directories expand to the *.csv files they contain, in name order. " +
			"Files are imported one at a time so earlier files win on repeated registry codes.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, path := range files {
				report, err := importFile(cmd, a.service, path)
				if err != nil {
					failed++
					reportFailure(cmd.ErrOrStderr(), path, err)
					if failFast {
						return err
					}
					continue
				}

				if detail {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(report); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%s: %d rows, %d inserted, %d skipped, %d dropped\n",
					path, len(report.Rows), report.Inserted, report.Skipped, report.Dropped)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&detail, "detail", false, "Print the full import report as JSON")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first file that fails")
	return cmd
}

// reportFailure prints the coded message for err, plus the raw error when
// the code is the generic ERR000.
func reportFailure(w io.Writer, path string, err error) {
	fmt.Fprintf(w, "%s: %s\n", path, core.FormatUserError(err))
	if !core.IsUserFacing(err) {
		fmt.Fprintf(w, "%s: detail: %v\n", path, err)
	}
}

func importFile(cmd *cobra.Command, service *core.Service, path string) (*core.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return service.ImportCSV(cmd.Context(), filepath.Base(path), f)
}

// collectFiles expands directories to their *.csv entries and keeps plain
// file arguments as given.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("%s: %w", arg, errNoCSV)
		}
		slices.Sort(found)
		files = append(files, found...)
	}
	return files, nil
}

var errNoCSV = errors.New("directory contains no .csv files")
