package main

import (
	"fmt"

	"github.com/IANDYI/growth-service/internal/adapters/repository"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import reference tables",
	Long: `Import percentile reference tables from a YAML file.

The file has three optional sections:

  metrics_for_age     WFA, LHFA, BFA, HCFA and ACFA rows keyed by age
  velocity            increment tables keyed by interval, in selection order
  weight_for_length   rows keyed by height in cm

Rows are upserted, so importing the same file twice is harmless.
Velocity rows are stored in file order.

EXAMPLES:

  growthctl import who-boys.yaml
  growthctl import who-girls.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := repository.LoadReferenceFile(args[0])
		if err != nil {
			return err
		}

		if importDryRun {
			color.Yellow("Dry run mode - no changes will be made")
			fmt.Printf("metrics_for_age:   %d rows\n", len(set.MetricsForAge))
			fmt.Printf("velocity:          %d rows\n", len(set.Velocity))
			fmt.Printf("weight_for_length: %d rows\n", len(set.WeightForLength))
			return nil
		}

		refs := repository.NewReferenceRepository(db, repository.DefaultBreakerConfig())
		summary, err := repository.ImportReferenceSet(cmd.Context(), refs, set)
		if err != nil {
			return err
		}

		color.Green("Imported %s", args[0])
		fmt.Printf("metrics_for_age:   %d rows\n", summary.MetricsForAge)
		fmt.Printf("velocity:          %d rows\n", summary.Velocity)
		fmt.Printf("weight_for_length: %d rows\n", summary.WeightForLength)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate the file without writing")
	rootCmd.AddCommand(importCmd)
}
