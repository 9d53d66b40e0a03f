package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/IANDYI/growth-service/internal/config"
	"github.com/spf13/cobra"
)

var (
	db          *sql.DB
	databaseURL string
)

var rootCmd = &cobra.Command{
	Use:   "growthctl",
	Short: "Growth service administration",
	Long: `growthctl manages the growth service database.

COMMANDS:

  migrate   Create the schema (tables and indexes)
  import    Load WHO-style reference tables from a YAML file
  compute   Interpret a single measurement against the stored tables

The database is read from --database, or DB_CONNECTION_STRING
(a .env file in the working directory is honoured).

EXAMPLES:

  growthctl migrate
  growthctl import testdata/references.yaml
  growthctl compute --birth-date 2024-01-15 --gender girl --height 65 --weight 7.1`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || (cmd == importCmd && importDryRun) {
			return nil
		}

		url := databaseURL
		if url == "" {
			var err error
			url, err = config.LoadDatabaseURL()
			if err != nil {
				return err
			}
		}

		var err error
		db, err = config.ConnectDatabase(url, 3, time.Second)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db != nil {
			return db.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database", "", "PostgreSQL connection string (default $DB_CONNECTION_STRING)")
}
