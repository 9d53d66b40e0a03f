package growth

import (
	"fmt"
	"math"
	"strconv"

	"github.com/IANDYI/growth-service/internal/core/domain"
)

// Metric names a quantity that gets a percentile description
type Metric string

const (
	MetricHeight            Metric = "height"
	MetricWeight            Metric = "weight"
	MetricHeadCircumference Metric = "head circumference"
	MetricArmCircumference  Metric = "arm circumference"
	MetricWeightForLength   Metric = "weight for length"
	MetricBmi               Metric = "BMI"

	MetricHeightVelocity            Metric = "height growth velocity"
	MetricWeightVelocity            Metric = "weight growth velocity"
	MetricHeadCircumferenceVelocity Metric = "head circumference growth velocity"
)

// comparison phrases for the share of children below and above the percentile
var phrases = map[Metric][2]string{
	MetricHeight:                    {"are shorter", "are taller"},
	MetricWeight:                    {"weigh less", "weigh more"},
	MetricHeadCircumference:         {"have a smaller head", "have a larger head"},
	MetricArmCircumference:          {"have a smaller arm", "have a larger arm"},
	MetricWeightForLength:           {"have a lower weight for length", "have a higher weight for length"},
	MetricBmi:                       {"have a lower BMI", "have a higher BMI"},
	MetricHeightVelocity:            {"have a slower height growth velocity", "have a faster height growth velocity"},
	MetricWeightVelocity:            {"have a slower weight growth velocity", "have a faster weight growth velocity"},
	MetricHeadCircumferenceVelocity: {"have a slower head circumference growth velocity", "have a faster head circumference growth velocity"},
}

// ClassifyLevel maps a percentile to its clinical band
func ClassifyLevel(percentile float64) domain.Level {
	switch {
	case percentile == domain.NotComputed:
		return domain.LevelNA
	case percentile < 5:
		return domain.LevelLow
	case percentile < 15:
		return domain.LevelBelowAverage
	case percentile < 95:
		return domain.LevelAverage
	default:
		return domain.LevelAboveAverage
	}
}

// ClassifyBmiLevel uses the same bands as ClassifyLevel with BMI names.
// [15, 95) is reported as Overweight.
func ClassifyBmiLevel(percentile float64) domain.BmiLevel {
	switch {
	case percentile == domain.NotComputed:
		return domain.BmiLevelNA
	case percentile < 5:
		return domain.BmiLevelUnderweight
	case percentile < 15:
		return domain.BmiLevelHealthyWeight
	case percentile < 95:
		return domain.BmiLevelOverweight
	default:
		return domain.BmiLevelObese
	}
}

// IsIrregular reports whether a computed percentile needs attention.
// Weight and weight-for-length are irregular at or above the 95th percentile.
func IsIrregular(metric Metric, percentile float64) bool {
	if percentile == domain.NotComputed {
		return false
	}
	switch metric {
	case MetricWeight, MetricWeightForLength:
		return percentile >= 95
	}
	return false
}

func IsIrregularBmi(level domain.BmiLevel) bool {
	return level == domain.BmiLevelUnderweight || level == domain.BmiLevelObese
}

// FormatPercentile prints whole numbers without decimals and everything else with two
func FormatPercentile(p float64) string {
	if p == math.Trunc(p) {
		return strconv.FormatFloat(p, 'f', -1, 64)
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}

// Describe renders the parent-facing sentence for a computed percentile.
// The percentile is printed as stored; only the complement goes through FormatPercentile.
func Describe(metric Metric, percentile float64, gender domain.Gender) string {
	if percentile == domain.NotComputed {
		return domain.NotAvailable
	}
	phrase, ok := phrases[metric]
	if !ok {
		phrase = [2]string{"have a lower " + string(metric), "have a higher " + string(metric)}
	}
	complement := 100 - percentile
	if complement < 0 {
		complement = 0
	}
	p := strconv.FormatFloat(percentile, 'f', -1, 64)
	return fmt.Sprintf("Your child is in the %s percentile for %s. That means %s percent of %s at that age %s, while %s percent %s.",
		p, metric, p, gender.Plural(), phrase[0], FormatPercentile(complement), phrase[1])
}

// NewMetric builds a classified metric, or the sentinel when ok is false
func NewMetric(metric Metric, percentile float64, ok bool, gender domain.Gender) domain.GrowthMetric {
	if !ok {
		return domain.NotComputedMetric()
	}
	return domain.GrowthMetric{
		Percentile:  percentile,
		Description: Describe(metric, percentile, gender),
		Level:       ClassifyLevel(percentile),
		Irregular:   IsIrregular(metric, percentile),
	}
}

func NewBmiMetric(percentile float64, ok bool, gender domain.Gender) domain.BmiMetric {
	if !ok {
		return domain.NotComputedBmiMetric()
	}
	level := ClassifyBmiLevel(percentile)
	return domain.BmiMetric{
		Percentile:  percentile,
		Description: Describe(MetricBmi, percentile, gender),
		Level:       level,
		Irregular:   IsIrregularBmi(level),
	}
}
