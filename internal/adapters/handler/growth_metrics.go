package handler

import (
	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GrowthResultLevelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growth_result_levels_total",
			Help: "Growth results produced, by metric and clinical level",
		},
		[]string{"metric", "level", "source"},
	)

	IrregularGrowthResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growth_irregular_results_total",
			Help: "Growth results with at least one irregular metric",
		},
		[]string{"source"},
	)

	GrowthVelocityIntervalsComputed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "growth_velocity_intervals",
			Help:    "Number of velocity intervals in each computed report",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 10, 12},
		},
	)
)

// observeGrowthResult records the level of every metric in a result
// source is "child" for stored measurements and "public" for anonymous ones
func observeGrowthResult(result domain.GrowthResult, source string) {
	levels := map[string]string{
		"height":             string(result.Height.Level),
		"weight":             string(result.Weight.Level),
		"head_circumference": string(result.HeadCircumference.Level),
		"arm_circumference":  string(result.ArmCircumference.Level),
		"weight_for_length":  string(result.WeightForLength.Level),
		"bmi":                string(result.Bmi.Level),
	}
	for metric, level := range levels {
		GrowthResultLevelsTotal.WithLabelValues(metric, level, source).Inc()
	}
	if result.Irregular {
		IrregularGrowthResultsTotal.WithLabelValues(source).Inc()
	}
}

func observeVelocity(results []domain.GrowthVelocityResult) {
	GrowthVelocityIntervalsComputed.Observe(float64(len(results)))
}
