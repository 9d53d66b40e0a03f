package growth

import (
	"math"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
)

// elapsedDays is the exact number of days between the calendar dates of from and to
func elapsedDays(from, to time.Time) float64 {
	return domain.NormalizeDate(to).Sub(domain.NormalizeDate(from)).Hours() / 24
}

// AgeInDays is the rounded number of days from birth to at
func AgeInDays(birth, at time.Time) int {
	return int(math.Round(elapsedDays(birth, at)))
}

// AgeInMonths converts days with the average month length
func AgeInMonths(days int) int {
	return int(math.Round(float64(days) / domain.DaysPerMonth))
}

// ReferenceAge picks the reference index for a measurement: the age in days up to
// and including day 1856, the age in months afterwards.
func ReferenceAge(birth, at time.Time) (int, domain.AgeUnit) {
	days := AgeInDays(birth, at)
	if days <= domain.DailyReferenceMaxAgeDays {
		return days, domain.AgeUnitDay
	}
	return AgeInMonths(days), domain.AgeUnitMonth
}
