package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/IANDYI/growth-service/internal/adapters/repository"
	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/growth"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	computeBirthDate     string
	computeGender        string
	computeDate          string
	computeHeight        float64
	computeWeight        float64
	computeHead          float64
	computeArm           float64
	computeWFLResolution float64
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Interpret one measurement",
	Long: `Compute the percentiles of a measurement against the stored reference tables.

Nothing is written to the database.

EXAMPLES:

  growthctl compute --birth-date 2024-01-15 --gender girl --height 65 --weight 7.1
  growthctl compute --birth-date 2023-06-01 --gender boy --date 2024-06-01 \
      --height 75.2 --weight 9.6 --head 46`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		birthDate, err := time.Parse("2006-01-02", computeBirthDate)
		if err != nil {
			return fmt.Errorf("invalid --birth-date: %w", err)
		}
		gender, err := domain.ParseGender(computeGender)
		if err != nil {
			return err
		}
		inputDate := domain.NormalizeDate(time.Now())
		if computeDate != "" {
			inputDate, err = time.Parse("2006-01-02", computeDate)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
		}
		if inputDate.Before(birthDate) {
			return fmt.Errorf("--date is before --birth-date")
		}
		if computeHeight <= 0 || computeWeight <= 0 {
			return fmt.Errorf("--height and --weight must be positive")
		}

		data := &domain.GrowthData{
			InputDate:         inputDate,
			Height:            computeHeight,
			Weight:            computeWeight,
			HeadCircumference: domain.PositiveOrNil(&computeHead),
			ArmCircumference:  domain.PositiveOrNil(&computeArm),
			Bmi:               domain.CalculateBMI(computeWeight, computeHeight),
		}

		refs := repository.NewReferenceRepository(db, repository.DefaultBreakerConfig())
		generator := growth.NewResultGenerator(refs, growth.WithWeightForLengthResolution(computeWFLResolution))
		result, err := generator.GeneratePublic(cmd.Context(), data, birthDate, gender)
		if err != nil {
			return err
		}

		days := growth.AgeInDays(birthDate, inputDate)
		color.New(color.Bold).Printf("%s, %d days (%d months), BMI %.2f\n", gender, days, growth.AgeInMonths(days), data.Bmi)
		printMetric("height", result.Height)
		printMetric("weight", result.Weight)
		printMetric("head circumference", result.HeadCircumference)
		printMetric("arm circumference", result.ArmCircumference)
		printMetric("weight for length", result.WeightForLength)
		printBmi(result.Bmi)

		if result.Irregular {
			fmt.Println()
			color.Red("Irregular: %s", strings.Join(result.IrregularMetrics(), ", "))
		}
		return nil
	},
}

func printMetric(name string, m domain.GrowthMetric) {
	c := levelColor(string(m.Level), m.Irregular)
	fmt.Printf("%-20s %8s  %s\n", name, formatPercentile(m.Percentile), c.Sprint(m.Level))
}

func printBmi(m domain.BmiMetric) {
	c := levelColor(string(m.Level), m.Irregular)
	fmt.Printf("%-20s %8s  %s\n", "bmi", formatPercentile(m.Percentile), c.Sprint(m.Level))
}

func formatPercentile(p float64) string {
	if p == domain.NotComputed {
		return domain.NotAvailable
	}
	return growth.FormatPercentile(p)
}

// levelColor picks red for irregular metrics, yellow for off-centre bands and green for Average
func levelColor(level string, irregular bool) *color.Color {
	switch {
	case irregular:
		return color.New(color.FgRed, color.Bold)
	case level == string(domain.LevelNA) || level == string(domain.BmiLevelNA):
		return color.New(color.Faint)
	case level == string(domain.LevelAverage) || level == string(domain.BmiLevelHealthyWeight):
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgYellow)
	}
}

func init() {
	computeCmd.Flags().StringVar(&computeBirthDate, "birth-date", "", "birth date (YYYY-MM-DD)")
	computeCmd.Flags().StringVarP(&computeGender, "gender", "g", "", "boy or girl")
	computeCmd.Flags().StringVar(&computeDate, "date", "", "measurement date (YYYY-MM-DD, default today)")
	computeCmd.Flags().Float64Var(&computeHeight, "height", 0, "height in cm")
	computeCmd.Flags().Float64Var(&computeWeight, "weight", 0, "weight in kg")
	computeCmd.Flags().Float64Var(&computeHead, "head", 0, "head circumference in cm")
	computeCmd.Flags().Float64Var(&computeArm, "arm", 0, "arm circumference in cm")
	computeCmd.Flags().Float64Var(&computeWFLResolution, "wfl-resolution", growth.DefaultWeightForLengthResolution, "weight-for-length height step in cm")
	_ = computeCmd.MarkFlagRequired("birth-date")
	_ = computeCmd.MarkFlagRequired("gender")
	rootCmd.AddCommand(computeCmd)
}
