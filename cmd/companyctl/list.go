package main

import (
	"encoding/json"

	"github.com/JonMunkholm/companies/internal/core"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored companies as JSON, in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			companies, err := a.service.ListCompanies(cmd.Context(), offset, limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(companies)
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Number of records to skip")
	cmd.Flags().IntVar(&limit, "limit", core.MaxPageSize, "Maximum records to print (0-100)")
	return cmd
}
