package growth

import (
	"strconv"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
)

// MaxVelocityIntervals caps the report at 0-4 weeks, 4 weeks-2 months and ten monthly intervals
const MaxVelocityIntervals = 12

// VelocityInterval is one standard interval with its reference tables
type VelocityInterval struct {
	First  domain.Interval
	Last   domain.Interval
	tables map[domain.VelocityType][]domain.PercentileValue
	// untyped table, serving every metric without a table of its own
	shared []domain.PercentileValue
}

// TableFor returns the distribution used for a velocity type
func (iv VelocityInterval) TableFor(t domain.VelocityType) []domain.PercentileValue {
	if table, ok := iv.tables[t]; ok {
		return table
	}
	return iv.shared
}

// Period is the interval label, e.g. "2 - 3 months"
func (iv VelocityInterval) Period() string {
	return FormatPeriod(iv.First.InMonths, iv.Last.InMonths)
}

// FormatPeriod rounds both bounds to one decimal and drops trailing zeros
func FormatPeriod(firstMonth, lastMonth float64) string {
	return strconv.FormatFloat(firstMonth, 'f', -1, 64) + " - " +
		strconv.FormatFloat(lastMonth, 'f', -1, 64) + " months"
}

// EligibleForVelocity is true once the child is older than one average month
func EligibleForVelocity(birth, now time.Time) bool {
	return float64(AgeInDays(birth, now)) > domain.DaysPerMonth
}

// SelectIntervals groups the standards by interval (keeping their stored order) and picks
// 0-4 weeks, 4 weeks-2 months, then month N to N+1 for N = 2, 3, ... until 12 intervals are collected.
func SelectIntervals(rows []domain.GrowthVelocityStandard) []VelocityInterval {
	var groups []*VelocityInterval
	byKey := make(map[string]*VelocityInterval)
	for _, row := range rows {
		key := row.IntervalKey()
		iv, ok := byKey[key]
		if !ok {
			iv = &VelocityInterval{
				First:  row.FirstInterval,
				Last:   row.LastInterval,
				tables: make(map[domain.VelocityType][]domain.PercentileValue),
			}
			byKey[key] = iv
			groups = append(groups, iv)
		}
		if row.Type == "" {
			iv.shared = row.Percentiles.Values
		} else {
			iv.tables[row.Type] = row.Percentiles.Values
		}
	}

	var selected []VelocityInterval
	var haveFirstMonth, haveSecondMonth bool
	month := 2.0
	for _, iv := range groups {
		if len(selected) >= MaxVelocityIntervals {
			break
		}
		switch {
		case !haveFirstMonth && iv.First.InWeeks == 0 && iv.Last.InWeeks == 4:
			haveFirstMonth = true
		case !haveSecondMonth && iv.First.InWeeks == 4 && iv.Last.InMonths == 2:
			haveSecondMonth = true
		case iv.First.InMonths == month && iv.Last.InMonths == month+1:
			month++
		default:
			continue
		}
		selected = append(selected, *iv)
	}
	return selected
}

// FindClosest returns the measurement whose age is nearest to targetDays.
// Ties go to the earlier input date. nil when history is empty.
func FindClosest(history []*domain.GrowthData, targetDays int, birth time.Time) *domain.GrowthData {
	var closest *domain.GrowthData
	var minDiff float64
	for _, data := range history {
		diff := elapsedDays(birth, data.InputDate) - float64(targetDays)
		if diff < 0 {
			diff = -diff
		}
		if closest == nil || diff < minDiff || (diff == minDiff && data.InputDate.Before(closest.InputDate)) {
			closest = data
			minDiff = diff
		}
	}
	return closest
}

// metricVelocity is the change per month, absent when either value is missing or no time elapsed
func metricVelocity(start, end *float64, months float64) (float64, bool) {
	if start == nil || end == nil || months <= 0 {
		return 0, false
	}
	return (*end - *start) / months, true
}

// ComputeVelocity builds one result per interval, in interval order. Intervals without a
// usable pair of measurements are still reported, with sentinel metrics.
func ComputeVelocity(child *domain.Child, history []*domain.GrowthData, intervals []VelocityInterval) []domain.GrowthVelocityResult {
	results := make([]domain.GrowthVelocityResult, 0, len(intervals))
	birth := domain.NormalizeDate(child.BirthDate)

	for _, iv := range intervals {
		result := domain.GrowthVelocityResult{
			Period:            iv.Period(),
			StartDate:         birth.AddDate(0, 0, iv.First.InDays),
			EndDate:           birth.AddDate(0, 0, iv.Last.InDays),
			Height:            domain.NotComputedMetric(),
			Weight:            domain.NotComputedMetric(),
			HeadCircumference: domain.NotComputedMetric(),
		}

		start := FindClosest(history, iv.First.InDays, birth)
		end := FindClosest(history, iv.Last.InDays, birth)
		if start == nil || end == nil {
			results = append(results, result)
			continue
		}

		months := elapsedDays(start.InputDate, end.InputDate) / domain.DaysPerMonth

		if v, ok := metricVelocity(&start.Height, &end.Height, months); ok {
			p, found := InterpolatePercentile(v, iv.TableFor(domain.VelocityHeight))
			result.Height = NewMetric(MetricHeightVelocity, p, found, child.Gender)
		}
		if v, ok := metricVelocity(&start.Weight, &end.Weight, months); ok {
			p, found := InterpolatePercentile(v, iv.TableFor(domain.VelocityWeight))
			result.Weight = NewMetric(MetricWeightVelocity, p, found, child.Gender)
		}
		if v, ok := metricVelocity(start.HeadCircumference, end.HeadCircumference, months); ok {
			p, found := InterpolatePercentile(v, iv.TableFor(domain.VelocityHeadCircumference))
			result.HeadCircumference = NewMetric(MetricHeadCircumferenceVelocity, p, found, child.Gender)
		}

		results = append(results, result)
	}
	return results
}
