package growth_test

import (
	"context"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
)

type ageKey struct {
	gender domain.Gender
	age    int
	unit   domain.AgeUnit
}

// fakeReferences serves reference rows from memory and records every lookup
type fakeReferences struct {
	metrics       map[ageKey][]domain.GrowthMetricForAge
	velocity      map[domain.Gender][]domain.GrowthVelocityStandard
	wfl           map[float64][]domain.WeightForLength
	metricLookups []ageKey
	wflLookups    []float64
	err           error
}

func newFakeReferences() *fakeReferences {
	return &fakeReferences{
		metrics:  make(map[ageKey][]domain.GrowthMetricForAge),
		velocity: make(map[domain.Gender][]domain.GrowthVelocityStandard),
		wfl:      make(map[float64][]domain.WeightForLength),
	}
}

func (f *fakeReferences) GetGrowthMetricsForAge(ctx context.Context, gender domain.Gender, age int, unit domain.AgeUnit) ([]domain.GrowthMetricForAge, error) {
	key := ageKey{gender, age, unit}
	f.metricLookups = append(f.metricLookups, key)
	if f.err != nil {
		return nil, f.err
	}
	return f.metrics[key], nil
}

func (f *fakeReferences) GetGrowthVelocityStandards(ctx context.Context, gender domain.Gender) ([]domain.GrowthVelocityStandard, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.velocity[gender], nil
}

func (f *fakeReferences) GetWeightForLength(ctx context.Context, height float64, gender domain.Gender) ([]domain.WeightForLength, error) {
	f.wflLookups = append(f.wflLookups, height)
	if f.err != nil {
		return nil, f.err
	}
	var rows []domain.WeightForLength
	for _, row := range f.wfl[height] {
		if row.Gender == gender {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (f *fakeReferences) addMetric(gender domain.Gender, age int, unit domain.AgeUnit, t domain.MetricType, values ...domain.PercentileValue) {
	key := ageKey{gender, age, unit}
	f.metrics[key] = append(f.metrics[key], domain.GrowthMetricForAge{
		Gender:      gender,
		Type:        t,
		Percentiles: domain.Percentiles{Values: values},
	})
}

func pv(percentile, value float64) domain.PercentileValue {
	return domain.PercentileValue{Percentile: percentile, Value: value}
}

func ptr(v float64) *float64 { return &v }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
