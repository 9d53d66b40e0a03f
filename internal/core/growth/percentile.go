// Package growth turns anthropometric measurements into percentile-based results
// and computes growth velocity across the standard age intervals.
package growth

import (
	"math"

	"github.com/IANDYI/growth-service/internal/core/domain"
)

// InterpolatePercentile locates value within a reference distribution sorted ascending by value.
// Values outside the table clamp to the first or last percentile. ok is false when no
// bracketing pair exists (empty table, or a value that compares false against every row).
func InterpolatePercentile(value float64, table []domain.PercentileValue) (float64, bool) {
	if len(table) == 0 {
		return 0, false
	}

	first, last := table[0], table[len(table)-1]
	if value <= first.Value {
		return first.Percentile, true
	}
	if value >= last.Value {
		return last.Percentile, true
	}

	for i := 0; i < len(table)-1; i++ {
		lower, upper := table[i], table[i+1]
		if lower.Value <= value && value <= upper.Value {
			if upper.Value == lower.Value {
				return lower.Percentile, true
			}
			fraction := (value - lower.Value) / (upper.Value - lower.Value)
			return round2(lower.Percentile + fraction*(upper.Percentile-lower.Percentile)), true
		}
	}

	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
