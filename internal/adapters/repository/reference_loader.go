package repository

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"gopkg.in/yaml.v3"
)

// ImportSummary counts the rows written by ImportReferenceSet
type ImportSummary struct {
	MetricsForAge   int `json:"metrics_for_age"`
	Velocity        int `json:"velocity"`
	WeightForLength int `json:"weight_for_length"`
}

// LoadReferenceFile reads a YAML reference bundle from disk
func LoadReferenceFile(path string) (*domain.ReferenceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference file: %w", err)
	}
	defer f.Close()
	return DecodeReferenceSet(f)
}

// DecodeReferenceSet parses and validates a YAML reference bundle
func DecodeReferenceSet(r io.Reader) (*domain.ReferenceSet, error) {
	var set domain.ReferenceSet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode reference file: %w", err)
	}

	for i, row := range set.MetricsForAge {
		if err := validateReferenceRow(row.Gender, row.Percentiles); err != nil {
			return nil, fmt.Errorf("metrics_for_age[%d]: %w", i, err)
		}
		switch row.Type {
		case domain.MetricWeightForAge, domain.MetricLengthHeightForAge, domain.MetricBmiForAge,
			domain.MetricHeadCircumferenceForAge, domain.MetricArmCircumferenceForAge:
		default:
			return nil, fmt.Errorf("metrics_for_age[%d]: %w: unknown type %q", i, domain.ErrInvalidArgument, row.Type)
		}
	}
	for i, row := range set.Velocity {
		if err := validateReferenceRow(row.Gender, row.Percentiles); err != nil {
			return nil, fmt.Errorf("velocity[%d]: %w", i, err)
		}
		switch row.Type {
		case "", domain.VelocityWeight, domain.VelocityHeight, domain.VelocityBmi,
			domain.VelocityHeadCircumference, domain.VelocityArmCircumference:
		default:
			return nil, fmt.Errorf("velocity[%d]: %w: unknown type %q", i, domain.ErrInvalidArgument, row.Type)
		}
	}
	for i, row := range set.WeightForLength {
		if err := validateReferenceRow(row.Gender, row.Percentiles); err != nil {
			return nil, fmt.Errorf("weight_for_length[%d]: %w", i, err)
		}
		if row.Height <= 0 {
			return nil, fmt.Errorf("weight_for_length[%d]: %w: height must be positive", i, domain.ErrInvalidArgument)
		}
	}

	return &set, nil
}

// validateReferenceRow checks the gender and that values ascend, as interpolation requires
func validateReferenceRow(gender domain.Gender, p domain.Percentiles) error {
	if !gender.Valid() {
		return fmt.Errorf("%w: unknown gender %d", domain.ErrInvalidArgument, gender)
	}
	if len(p.Values) == 0 {
		return fmt.Errorf("%w: empty percentile table", domain.ErrInvalidArgument)
	}
	for i := 1; i < len(p.Values); i++ {
		if p.Values[i].Value < p.Values[i-1].Value {
			return fmt.Errorf("%w: percentile values must ascend (row %d)", domain.ErrInvalidArgument, i)
		}
	}
	return nil
}

// ImportReferenceSet writes every table of set. Velocity rows keep their file order.
func ImportReferenceSet(ctx context.Context, importer ports.ReferenceImporter, set *domain.ReferenceSet) (ImportSummary, error) {
	var summary ImportSummary

	for _, row := range set.MetricsForAge {
		if err := importer.SaveGrowthMetricForAge(ctx, row); err != nil {
			return summary, fmt.Errorf("failed to save %s row for age %v days: %w", row.Type, row.Age.InDays, err)
		}
		summary.MetricsForAge++
	}
	for i, row := range set.Velocity {
		if err := importer.SaveGrowthVelocityStandard(ctx, i, row); err != nil {
			return summary, fmt.Errorf("failed to save velocity row %d: %w", i, err)
		}
		summary.Velocity++
	}
	for _, row := range set.WeightForLength {
		if err := importer.SaveWeightForLength(ctx, row); err != nil {
			return summary, fmt.Errorf("failed to save weight for length row %.1f cm: %w", row.Height, err)
		}
		summary.WeightForLength++
	}

	return summary, nil
}
