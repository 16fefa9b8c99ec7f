package main

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"storefront/migrations"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the SQL that prepares a backend project",
		Long: `schema prints the tables, row level security policies and the
check_admin_status function the storefront expects, in apply order. Paste
the output into the backend's SQL editor to fix backend_policy_error
outcomes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := migrations.Files()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				data, err := fs.ReadFile(migrations.FS, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "-- %s\n%s\n", name, data)
			}
			return nil
		},
	}
}
