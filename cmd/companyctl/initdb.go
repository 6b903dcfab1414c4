package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitDBCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the companies table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// store.Open already ensured the schema; ping confirms the handle is live.
			if err := a.db.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", a.cfg.Database.Driver())
			return nil
		},
	}
}
