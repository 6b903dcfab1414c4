package main

import (
	"log/slog"
	"os"

	"github.com/JonMunkholm/companies/internal/config"
	"github.com/JonMunkholm/companies/internal/core"
	"github.com/JonMunkholm/companies/internal/logging"
	"github.com/JonMunkholm/companies/internal/store"
	"github.com/spf13/cobra"
)

// app carries the state opened by the root command for its subcommands.
type app struct {
	cfg     *config.Config
	db      core.Store
	service *core.Service
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "companyctl",
		Short:         "Manage the company registry store",
		Long:          "companyctl creates the companies table, imports semicolon-separated registry exports and lists stored records.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}

	root.AddCommand(
		newInitDBCmd(a),
		newImportCmd(a),
		newListCmd(a),
	)
	return root
}

// execute runs the command tree and closes the store whether or not the
// command succeeded.
func (a *app) execute(root *cobra.Command) (err error) {
	defer func() {
		if cerr := a.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return root.Execute()
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Logs go to stderr so stdout stays parseable
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))

	db, err := store.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}

	service, err := core.NewService(db, cfg)
	if err != nil {
		db.Close()
		return err
	}

	a.cfg, a.db, a.service = cfg, db, service
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
