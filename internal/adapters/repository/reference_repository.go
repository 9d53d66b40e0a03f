package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"github.com/sony/gobreaker"
)

// ReferenceRepository reads and imports growth standards stored in PostgreSQL
// Percentile tables are stored as JSONB, one row per (gender, type, age or interval)
type ReferenceRepository struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker
	retrier
}

// NewReferenceRepository creates a reference repository with its own circuit breaker
func NewReferenceRepository(db *sql.DB, cfg BreakerConfig) *ReferenceRepository {
	return &ReferenceRepository{
		db:      db,
		cb:      newCircuitBreaker("database-references", cfg),
		retrier: retrier{maxRetries: 3, retryDelay: 1 * time.Second},
	}
}

func (r *ReferenceRepository) GetGrowthMetricsForAge(ctx context.Context, gender domain.Gender, age int, unit domain.AgeUnit) ([]domain.GrowthMetricForAge, error) {
	var column string
	switch unit {
	case domain.AgeUnitDay:
		column = "age_in_days"
	case domain.AgeUnitMonth:
		column = "age_in_months"
	default:
		return nil, fmt.Errorf("%w: unknown age unit %q", domain.ErrInvalidArgument, unit)
	}
	if age < 0 {
		return nil, fmt.Errorf("%w: negative age %d", domain.ErrInvalidArgument, age)
	}

	result, err := r.cb.Execute(func() (interface{}, error) {
		var list []domain.GrowthMetricForAge
		err := r.executeWithRetry(ctx, func() error {
			list = nil
			query := `SELECT gender, type, age_in_days, age_in_months, percentiles
				FROM growth_metric_for_age WHERE gender = $1 AND ` + column + ` = $2 ORDER BY type`
			rows, err := r.db.QueryContext(ctx, query, int(gender), float64(age))
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var row domain.GrowthMetricForAge
				var g int
				var metricType string
				var percentiles []byte
				if err := rows.Scan(&g, &metricType, &row.Age.InDays, &row.Age.InMonths, &percentiles); err != nil {
					return err
				}
				row.Gender = domain.Gender(g)
				row.Type = domain.MetricType(metricType)
				if err := json.Unmarshal(percentiles, &row.Percentiles); err != nil {
					return fmt.Errorf("%w: malformed percentiles: %v", domain.ErrInvalidArgument, err)
				}
				list = append(list, row)
			}
			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return list, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]domain.GrowthMetricForAge), nil
}

func (r *ReferenceRepository) GetGrowthVelocityStandards(ctx context.Context, gender domain.Gender) ([]domain.GrowthVelocityStandard, error) {
	result, err := r.cb.Execute(func() (interface{}, error) {
		var list []domain.GrowthVelocityStandard
		err := r.executeWithRetry(ctx, func() error {
			list = nil
			query := `SELECT gender, type,
				first_in_months, first_in_weeks, first_in_days,
				last_in_months, last_in_weeks, last_in_days, percentiles
				FROM growth_velocity_standard WHERE gender = $1 ORDER BY position, id`
			rows, err := r.db.QueryContext(ctx, query, int(gender))
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var row domain.GrowthVelocityStandard
				var g int
				var velocityType string
				var percentiles []byte
				if err := rows.Scan(&g, &velocityType,
					&row.FirstInterval.InMonths, &row.FirstInterval.InWeeks, &row.FirstInterval.InDays,
					&row.LastInterval.InMonths, &row.LastInterval.InWeeks, &row.LastInterval.InDays,
					&percentiles); err != nil {
					return err
				}
				row.Gender = domain.Gender(g)
				row.Type = domain.VelocityType(velocityType)
				if err := json.Unmarshal(percentiles, &row.Percentiles); err != nil {
					return fmt.Errorf("%w: malformed percentiles: %v", domain.ErrInvalidArgument, err)
				}
				list = append(list, row)
			}
			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return list, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]domain.GrowthVelocityStandard), nil
}

func (r *ReferenceRepository) GetWeightForLength(ctx context.Context, height float64, gender domain.Gender) ([]domain.WeightForLength, error) {
	result, err := r.cb.Execute(func() (interface{}, error) {
		var list []domain.WeightForLength
		err := r.executeWithRetry(ctx, func() error {
			list = nil
			query := `SELECT height, gender, percentiles FROM weight_for_length
				WHERE gender = $1 AND height = ROUND($2::numeric, 1)`
			rows, err := r.db.QueryContext(ctx, query, int(gender), height)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var row domain.WeightForLength
				var g int
				var percentiles []byte
				if err := rows.Scan(&row.Height, &g, &percentiles); err != nil {
					return err
				}
				row.Gender = domain.Gender(g)
				if err := json.Unmarshal(percentiles, &row.Percentiles); err != nil {
					return fmt.Errorf("%w: malformed percentiles: %v", domain.ErrInvalidArgument, err)
				}
				list = append(list, row)
			}
			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return list, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]domain.WeightForLength), nil
}

// ReferenceImporter implementation (upserts, so re-importing a file is idempotent)

func (r *ReferenceRepository) SaveGrowthMetricForAge(ctx context.Context, row domain.GrowthMetricForAge) error {
	percentiles, err := json.Marshal(row.Percentiles)
	if err != nil {
		return fmt.Errorf("failed to marshal percentiles: %w", err)
	}
	return r.exec(ctx, `INSERT INTO growth_metric_for_age (gender, type, age_in_days, age_in_months, percentiles)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (gender, type, age_in_days, age_in_months) DO UPDATE SET percentiles = EXCLUDED.percentiles`,
		int(row.Gender), string(row.Type), row.Age.InDays, row.Age.InMonths, percentiles)
}

func (r *ReferenceRepository) SaveGrowthVelocityStandard(ctx context.Context, position int, row domain.GrowthVelocityStandard) error {
	percentiles, err := json.Marshal(row.Percentiles)
	if err != nil {
		return fmt.Errorf("failed to marshal percentiles: %w", err)
	}
	return r.exec(ctx, `INSERT INTO growth_velocity_standard (position, gender, type,
			first_in_months, first_in_weeks, first_in_days, last_in_months, last_in_weeks, last_in_days, percentiles)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (gender, type, first_in_days, last_in_days)
		DO UPDATE SET position = EXCLUDED.position, percentiles = EXCLUDED.percentiles,
			first_in_months = EXCLUDED.first_in_months, first_in_weeks = EXCLUDED.first_in_weeks,
			last_in_months = EXCLUDED.last_in_months, last_in_weeks = EXCLUDED.last_in_weeks`,
		position, int(row.Gender), string(row.Type),
		row.FirstInterval.InMonths, row.FirstInterval.InWeeks, row.FirstInterval.InDays,
		row.LastInterval.InMonths, row.LastInterval.InWeeks, row.LastInterval.InDays, percentiles)
}

func (r *ReferenceRepository) SaveWeightForLength(ctx context.Context, row domain.WeightForLength) error {
	percentiles, err := json.Marshal(row.Percentiles)
	if err != nil {
		return fmt.Errorf("failed to marshal percentiles: %w", err)
	}
	return r.exec(ctx, `INSERT INTO weight_for_length (gender, height, percentiles)
		VALUES ($1, ROUND($2::numeric, 1), $3)
		ON CONFLICT (gender, height) DO UPDATE SET percentiles = EXCLUDED.percentiles`,
		int(row.Gender), row.Height, percentiles)
}

func (r *ReferenceRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			_, err := r.db.ExecContext(ctx, query, args...)
			return err
		})
	})
	return err
}

// Ensure ReferenceRepository implements the interfaces
var _ ports.ReferenceRepository = (*ReferenceRepository)(nil)
var _ ports.ReferenceImporter = (*ReferenceRepository)(nil)
