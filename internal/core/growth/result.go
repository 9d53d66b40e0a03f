package growth

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
)

// DefaultWeightForLengthResolution is the height step (cm) of the weight-for-length tables
const DefaultWeightForLengthResolution = 0.5

// Subject is whose measurement is being interpreted
type Subject struct {
	BirthDate time.Time
	Gender    domain.Gender
}

// ResultGenerator computes GrowthResult snapshots from the reference tables
type ResultGenerator struct {
	refs          ports.ReferenceRepository
	wflResolution float64
}

type GeneratorOption func(*ResultGenerator)

// WithWeightForLengthResolution sets the height bucket size used for weight-for-length lookups.
// A non-positive value disables bucketing beyond rounding to one decimal.
func WithWeightForLengthResolution(resolution float64) GeneratorOption {
	return func(g *ResultGenerator) {
		g.wflResolution = resolution
	}
}

func NewResultGenerator(refs ports.ReferenceRepository, opts ...GeneratorOption) *ResultGenerator {
	g := &ResultGenerator{
		refs:          refs,
		wflResolution: DefaultWeightForLengthResolution,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HeightBucket rounds a height to the weight-for-length table resolution
func (g *ResultGenerator) HeightBucket(height float64) float64 {
	if g.wflResolution <= 0 {
		return round1(height)
	}
	return round1(math.Round(height/g.wflResolution) * g.wflResolution)
}

// GenerateForChild interprets a measurement of a stored child
func (g *ResultGenerator) GenerateForChild(ctx context.Context, data *domain.GrowthData, child *domain.Child) (domain.GrowthResult, error) {
	return g.Generate(ctx, data, Subject{BirthDate: child.BirthDate, Gender: child.Gender})
}

// GeneratePublic interprets an anonymous measurement
func (g *ResultGenerator) GeneratePublic(ctx context.Context, data *domain.GrowthData, birthDate time.Time, gender domain.Gender) (domain.GrowthResult, error) {
	return g.Generate(ctx, data, Subject{BirthDate: birthDate, Gender: gender})
}

// Generate interpolates every metric of data against the reference rows for the subject's age.
// Metrics without reference data or without a measured value stay at the sentinel.
func (g *ResultGenerator) Generate(ctx context.Context, data *domain.GrowthData, subject Subject) (domain.GrowthResult, error) {
	result := domain.NewGrowthResult()
	gender := subject.Gender

	age, unit := ReferenceAge(subject.BirthDate, data.InputDate)
	rows, err := g.refs.GetGrowthMetricsForAge(ctx, gender, age, unit)
	if err != nil {
		return result, fmt.Errorf("failed to load growth metrics for %s %d: %w", unit, age, err)
	}

	bmi := domain.CalculateBMI(data.Weight, data.Height)

	for _, row := range rows {
		table := row.Percentiles.Values
		switch row.Type {
		case domain.MetricBmiForAge:
			p, ok := InterpolatePercentile(bmi, table)
			result.Bmi = NewBmiMetric(p, ok, gender)
		case domain.MetricLengthHeightForAge:
			p, ok := InterpolatePercentile(data.Height, table)
			result.Height = NewMetric(MetricHeight, p, ok, gender)
		case domain.MetricWeightForAge:
			p, ok := InterpolatePercentile(data.Weight, table)
			result.Weight = NewMetric(MetricWeight, p, ok, gender)
		case domain.MetricHeadCircumferenceForAge:
			if hc := domain.PositiveOrNil(data.HeadCircumference); hc != nil {
				p, ok := InterpolatePercentile(*hc, table)
				result.HeadCircumference = NewMetric(MetricHeadCircumference, p, ok, gender)
			}
		case domain.MetricArmCircumferenceForAge:
			if ac := domain.PositiveOrNil(data.ArmCircumference); ac != nil {
				p, ok := InterpolatePercentile(*ac, table)
				result.ArmCircumference = NewMetric(MetricArmCircumference, p, ok, gender)
			}
		}
	}

	wflRows, err := g.refs.GetWeightForLength(ctx, g.HeightBucket(data.Height), gender)
	if err != nil {
		return result, fmt.Errorf("failed to load weight for length: %w", err)
	}
	for _, row := range wflRows {
		p, ok := InterpolatePercentile(data.Weight, row.Percentiles.Values)
		result.WeightForLength = NewMetric(MetricWeightForLength, p, ok, gender)
	}

	result.Irregular = len(result.IrregularMetrics()) > 0
	return result, nil
}
