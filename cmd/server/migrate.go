package main

import (
	"github.com/spf13/cobra"

	"zoskagram/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := database.Migrate(cmd.Context(), a.db); err != nil {
			return err
		}
		a.log.Info("Schema applied")
		return nil
	},
}
