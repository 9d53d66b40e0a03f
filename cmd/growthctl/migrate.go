package main

import (
	"github.com/IANDYI/growth-service/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long: `Create every table and index used by the growth service.

Existing tables are kept. Set DROP_TABLES_ON_STARTUP=true to drop the
users, children and growth_data tables first; reference tables are never dropped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitDatabase(db); err != nil {
			return err
		}
		color.Green("Schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
