package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DaysPerMonth is the average month length used for every age and velocity computation
	DaysPerMonth = 30.4375

	// DailyReferenceMaxAgeDays is the last age (inclusive) served by day-indexed reference rows.
	// Older children use month-indexed rows.
	DailyReferenceMaxAgeDays = 1856

	// NotComputed is the percentile reported when no reference data matched
	NotComputed = -1.0

	// NotAvailable is the description paired with NotComputed
	NotAvailable = "N/A"
)

// Level is the clinical band a percentile falls in
type Level string

const (
	LevelLow          Level = "Low"
	LevelBelowAverage Level = "BelowAverage"
	LevelAverage      Level = "Average"
	LevelAboveAverage Level = "AboveAverage"
	LevelHigh         Level = "High" // reserved for stored results, never classified
	LevelNA           Level = "NA"
)

// BmiLevel is the BMI-specific naming of the same percentile bands
type BmiLevel string

const (
	BmiLevelUnderweight   BmiLevel = "Underweight"
	BmiLevelHealthyWeight BmiLevel = "HealthyWeight"
	BmiLevelOverweight    BmiLevel = "Overweight"
	BmiLevelObese         BmiLevel = "Obese"
	BmiLevelNA            BmiLevel = "NA"
)

// GrowthMetric is one interpreted measurement
type GrowthMetric struct {
	Percentile  float64 `json:"percentile"` // -1 when not computed
	Description string  `json:"description"`
	Level       Level   `json:"level"`
	Irregular   bool    `json:"irregular"`
}

// BmiMetric is GrowthMetric with BMI level naming
type BmiMetric struct {
	Percentile  float64  `json:"percentile"`
	Description string   `json:"description"`
	Level       BmiLevel `json:"level"`
	Irregular   bool     `json:"irregular"`
}

// Computed reports whether a percentile was found for the metric
func (m GrowthMetric) Computed() bool { return m.Percentile != NotComputed }

func (m BmiMetric) Computed() bool { return m.Percentile != NotComputed }

// NotComputedMetric is the sentinel metric used before any reference row applies
func NotComputedMetric() GrowthMetric {
	return GrowthMetric{Percentile: NotComputed, Description: NotAvailable, Level: LevelNA}
}

func NotComputedBmiMetric() BmiMetric {
	return BmiMetric{Percentile: NotComputed, Description: NotAvailable, Level: BmiLevelNA}
}

// GrowthResult is the interpretation snapshot stored with a measurement
type GrowthResult struct {
	Height            GrowthMetric `json:"height"`
	Weight            GrowthMetric `json:"weight"`
	HeadCircumference GrowthMetric `json:"head_circumference"`
	ArmCircumference  GrowthMetric `json:"arm_circumference"`
	WeightForLength   GrowthMetric `json:"weight_for_length"`
	Bmi               BmiMetric    `json:"bmi"`
	// True when any metric is flagged irregular
	Irregular bool `json:"irregular"`
}

// NewGrowthResult returns a result with every field at the not-computed sentinel
func NewGrowthResult() GrowthResult {
	return GrowthResult{
		Height:            NotComputedMetric(),
		Weight:            NotComputedMetric(),
		HeadCircumference: NotComputedMetric(),
		ArmCircumference:  NotComputedMetric(),
		WeightForLength:   NotComputedMetric(),
		Bmi:               NotComputedBmiMetric(),
	}
}

// IrregularMetrics lists the names of the metrics flagged irregular, in a fixed order
func (r GrowthResult) IrregularMetrics() []string {
	var names []string
	if r.Bmi.Irregular {
		names = append(names, "bmi")
	}
	if r.Height.Irregular {
		names = append(names, "height")
	}
	if r.Weight.Irregular {
		names = append(names, "weight")
	}
	if r.HeadCircumference.Irregular {
		names = append(names, "head_circumference")
	}
	if r.ArmCircumference.Irregular {
		names = append(names, "arm_circumference")
	}
	if r.WeightForLength.Irregular {
		names = append(names, "weight_for_length")
	}
	return names
}

// GrowthData is one dated measurement of a child
// At most one live (non-deleted) record exists per (child, input date)
type GrowthData struct {
	ID                uuid.UUID    `json:"id"`
	ChildID           uuid.UUID    `json:"child_id"`
	InputDate         time.Time    `json:"input_date"` // Calendar date, UTC midnight
	Height            float64      `json:"height"`     // cm
	Weight            float64      `json:"weight"`     // kg
	HeadCircumference *float64     `json:"head_circumference,omitempty"`
	ArmCircumference  *float64     `json:"arm_circumference,omitempty"`
	Bmi               float64      `json:"bmi"`
	GrowthResult      GrowthResult `json:"growth_result"`
	CreatedBy         uuid.UUID    `json:"created_by"`
	IsDeleted         bool         `json:"-"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// GrowthVelocityResult is the velocity report for one standardized age interval
type GrowthVelocityResult struct {
	Period            string       `json:"period"`
	StartDate         time.Time    `json:"start_date"`
	EndDate           time.Time    `json:"end_date"`
	Height            GrowthMetric `json:"height"`
	Weight            GrowthMetric `json:"weight"`
	HeadCircumference GrowthMetric `json:"head_circumference"`
}

// CalculateBMI uses height in cm, so the kg/m² value is scaled by 10000
func CalculateBMI(weight, height float64) float64 {
	if height <= 0 {
		return 0
	}
	return weight / (height * height) * 10000
}

// NormalizeDate truncates t to its calendar date at UTC midnight
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PositiveOrNil drops absent and non-positive optional measurements
func PositiveOrNil(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	out := *v
	return &out
}
