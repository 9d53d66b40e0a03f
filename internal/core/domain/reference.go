package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MetricType identifies a metric-for-age reference table
type MetricType string

const (
	MetricWeightForAge            MetricType = "WFA"
	MetricLengthHeightForAge      MetricType = "LHFA"
	MetricBmiForAge               MetricType = "BFA"
	MetricHeadCircumferenceForAge MetricType = "HCFA"
	MetricArmCircumferenceForAge  MetricType = "ACFA"
)

// VelocityType identifies a growth velocity reference table
type VelocityType string

const (
	VelocityWeight            VelocityType = "WV"
	VelocityHeight            VelocityType = "HV"
	VelocityBmi               VelocityType = "BV"
	VelocityHeadCircumference VelocityType = "HCV"
	VelocityArmCircumference  VelocityType = "ACV"
)

// AgeUnit selects day-indexed or month-indexed reference rows
type AgeUnit string

const (
	AgeUnitDay   AgeUnit = "day"
	AgeUnitMonth AgeUnit = "month"
)

func ParseAgeUnit(s string) (AgeUnit, error) {
	switch AgeUnit(strings.ToLower(s)) {
	case AgeUnitDay:
		return AgeUnitDay, nil
	case AgeUnitMonth:
		return AgeUnitMonth, nil
	}
	return "", fmt.Errorf("%w: unknown age unit %q", ErrInvalidArgument, s)
}

// PercentileValue is one row of a reference distribution
type PercentileValue struct {
	Percentile float64 `json:"percentile" yaml:"percentile"`
	Value      float64 `json:"value" yaml:"value"`
}

// Percentiles holds a reference distribution. L, M, S and Delta are kept for completeness;
// interpolation only reads Values, which must be ascending by value.
type Percentiles struct {
	L      float64           `json:"l" yaml:"l"`
	M      float64           `json:"m" yaml:"m"`
	S      float64           `json:"s" yaml:"s"`
	Delta  *float64          `json:"delta,omitempty" yaml:"delta,omitempty"`
	Values []PercentileValue `json:"values" yaml:"values"`
}

// Age indexes a metric-for-age row. Day-indexed rows carry fractional months and
// month-indexed rows fractional days, so only the index matching the lookup unit is whole.
type Age struct {
	InDays   float64 `json:"in_days" yaml:"in_days"`
	InMonths float64 `json:"in_months" yaml:"in_months"`
}

// GrowthMetricForAge is one metric-for-age reference row
type GrowthMetricForAge struct {
	Gender      Gender      `json:"gender" yaml:"gender"`
	Type        MetricType  `json:"type" yaml:"type"`
	Age         Age         `json:"age" yaml:"age"`
	Percentiles Percentiles `json:"percentiles" yaml:"percentiles"`
}

// Interval is an offset from birth expressed in the three units the standards use
type Interval struct {
	InMonths float64 `json:"in_months" yaml:"in_months"`
	InWeeks  float64 `json:"in_weeks" yaml:"in_weeks"`
	InDays   int     `json:"in_days" yaml:"in_days"`
}

// GrowthVelocityStandard is the velocity distribution for one interval.
// Type may be empty when a single table serves every metric of the interval.
type GrowthVelocityStandard struct {
	Gender        Gender       `json:"gender" yaml:"gender"`
	Type          VelocityType `json:"type,omitempty" yaml:"type,omitempty"`
	FirstInterval Interval     `json:"first_interval" yaml:"first_interval"`
	LastInterval  Interval     `json:"last_interval" yaml:"last_interval"`
	Percentiles   Percentiles  `json:"percentiles" yaml:"percentiles"`
}

// IntervalKey groups standards that describe the same interval
func (s GrowthVelocityStandard) IntervalKey() string {
	return intervalKey(s.FirstInterval) + "/" + intervalKey(s.LastInterval)
}

func intervalKey(i Interval) string {
	return strconv.FormatFloat(i.InMonths, 'f', -1, 64) + "m" +
		strconv.FormatFloat(i.InWeeks, 'f', -1, 64) + "w" +
		strconv.Itoa(i.InDays) + "d"
}

// WeightForLength is a weight distribution for one height bucket
type WeightForLength struct {
	Height      float64     `json:"height" yaml:"height"`
	Gender      Gender      `json:"gender" yaml:"gender"`
	Percentiles Percentiles `json:"percentiles" yaml:"percentiles"`
}

// ReferenceSet is a bundle of reference tables as imported from a file
type ReferenceSet struct {
	MetricsForAge   []GrowthMetricForAge     `json:"metrics_for_age" yaml:"metrics_for_age"`
	Velocity        []GrowthVelocityStandard `json:"velocity" yaml:"velocity"`
	WeightForLength []WeightForLength        `json:"weight_for_length" yaml:"weight_for_length"`
}
