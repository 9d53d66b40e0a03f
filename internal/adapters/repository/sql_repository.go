package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// SQLRepository implements ChildRepository, UserRepository and GrowthDataRepository using PostgreSQL
// Includes retry logic and circuit breaker for resilience
type SQLRepository struct {
	db       *sql.DB
	childCB  *gobreaker.CircuitBreaker
	userCB   *gobreaker.CircuitBreaker
	growthCB *gobreaker.CircuitBreaker
	retrier
}

// NewSQLRepository creates a new PostgreSQL repository with circuit breakers
func NewSQLRepository(db *sql.DB, cfg BreakerConfig) *SQLRepository {
	return &SQLRepository{
		db:       db,
		childCB:  newCircuitBreaker("database-children", cfg),
		userCB:   newCircuitBreaker("database-users", cfg),
		growthCB: newCircuitBreaker("database-growth-data", cfg),
		retrier:  retrier{maxRetries: 3, retryDelay: 1 * time.Second},
	}
}

// ChildRepository implementation

const childColumns = `id, name, birth_date, gender, note, guardian_id, growth_velocity_result, created_at, updated_at`

func (r *SQLRepository) CreateChild(ctx context.Context, child *domain.Child) error {
	velocity, err := json.Marshal(nonNilVelocity(child.GrowthVelocityResult))
	if err != nil {
		return fmt.Errorf("failed to marshal growth velocity: %w", err)
	}

	_, err = r.childCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO children (` + childColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
			_, err := r.db.ExecContext(ctx, query,
				child.ID, child.Name, child.BirthDate, int(child.Gender), child.Note, child.GuardianID,
				velocity, child.CreatedAt, child.UpdatedAt)
			return err
		})
	})
	return err
}

func (r *SQLRepository) GetChildByID(ctx context.Context, childID uuid.UUID) (*domain.Child, error) {
	result, err := r.childCB.Execute(func() (interface{}, error) {
		var child *domain.Child
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT ` + childColumns + ` FROM children WHERE id = $1`
			var scanErr error
			child, scanErr = scanChild(r.db.QueryRowContext(ctx, query, childID))
			return scanErr
		})
		if err != nil {
			return nil, err
		}
		return child, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return result.(*domain.Child), nil
}

func (r *SQLRepository) ListChildren(ctx context.Context, guardianID uuid.UUID, all bool) ([]*domain.Child, error) {
	result, err := r.childCB.Execute(func() (interface{}, error) {
		var children []*domain.Child
		err := r.executeWithRetry(ctx, func() error {
			children = nil
			var rows *sql.Rows
			var queryErr error

			if all {
				rows, queryErr = r.db.QueryContext(ctx, `SELECT `+childColumns+` FROM children ORDER BY created_at DESC`)
			} else {
				rows, queryErr = r.db.QueryContext(ctx, `SELECT `+childColumns+` FROM children WHERE guardian_id = $1 ORDER BY created_at DESC`, guardianID)
			}
			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				child, err := scanChild(rows)
				if err != nil {
					return err
				}
				children = append(children, child)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return children, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.Child), nil
}

func (r *SQLRepository) UpdateChildVelocity(ctx context.Context, childID uuid.UUID, results []domain.GrowthVelocityResult) error {
	velocity, err := json.Marshal(nonNilVelocity(results))
	if err != nil {
		return fmt.Errorf("failed to marshal growth velocity: %w", err)
	}

	_, err = r.childCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `UPDATE children SET growth_velocity_result = $2, updated_at = $3 WHERE id = $1`
			res, err := r.db.ExecContext(ctx, query, childID, velocity, time.Now())
			if err != nil {
				return err
			}
			return expectRow(res, "child")
		})
	})
	return err
}

// UserRepository implementation

func (r *SQLRepository) UpsertUser(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	_, err := r.userCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO users (id, role, created_at, updated_at) VALUES ($1, $2, now(), now())
				ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()`
			_, err := r.db.ExecContext(ctx, query, userID, string(role))
			return err
		})
	})
	return err
}

func (r *SQLRepository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	result, err := r.userCB.Execute(func() (interface{}, error) {
		var exists bool
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
			return r.db.QueryRowContext(ctx, query, userID).Scan(&exists)
		})
		if err != nil {
			return nil, err
		}
		return exists, nil
	})

	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

// GrowthDataRepository implementation

const growthDataColumns = `id, child_id, input_date, height, weight, head_circumference, arm_circumference,
	bmi, growth_result, created_by, is_deleted, created_at, updated_at`

func (r *SQLRepository) CreateGrowthData(ctx context.Context, data *domain.GrowthData) error {
	growthResult, err := json.Marshal(data.GrowthResult)
	if err != nil {
		return fmt.Errorf("failed to marshal growth result: %w", err)
	}

	_, err = r.growthCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			// uq_growth_data_child_date turns a concurrent duplicate into a unique violation
			query := `INSERT INTO growth_data (` + growthDataColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
			_, err := r.db.ExecContext(ctx, query,
				data.ID, data.ChildID, data.InputDate, data.Height, data.Weight,
				nullFloat(data.HeadCircumference), nullFloat(data.ArmCircumference),
				data.Bmi, growthResult, data.CreatedBy, false, data.CreatedAt, data.UpdatedAt)
			return err
		})
	})
	return err
}

func (r *SQLRepository) GetGrowthDataByID(ctx context.Context, id uuid.UUID) (*domain.GrowthData, error) {
	result, err := r.growthCB.Execute(func() (interface{}, error) {
		var data *domain.GrowthData
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT ` + growthDataColumns + ` FROM growth_data WHERE id = $1 AND NOT is_deleted`
			var scanErr error
			data, scanErr = scanGrowthData(r.db.QueryRowContext(ctx, query, id))
			return scanErr
		})
		if err != nil {
			return nil, err
		}
		return data, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return result.(*domain.GrowthData), nil
}

func (r *SQLRepository) GetAllGrowthDataByChildID(ctx context.Context, childID uuid.UUID) ([]*domain.GrowthData, error) {
	query := `SELECT ` + growthDataColumns + ` FROM growth_data
		WHERE child_id = $1 AND NOT is_deleted ORDER BY created_at ASC, id ASC`
	return r.queryGrowthData(ctx, query, childID)
}

func (r *SQLRepository) ListGrowthDataByChildID(ctx context.Context, childID uuid.UUID, page domain.PageQuery) ([]*domain.GrowthData, int, error) {
	page = page.Normalize()

	total, err := r.growthCB.Execute(func() (interface{}, error) {
		var count int
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT COUNT(*) FROM growth_data WHERE child_id = $1 AND NOT is_deleted`
			return r.db.QueryRowContext(ctx, query, childID).Scan(&count)
		})
		if err != nil {
			return nil, err
		}
		return count, nil
	})
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + growthDataColumns + ` FROM growth_data
		WHERE child_id = $1 AND NOT is_deleted
		ORDER BY input_date DESC, created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.queryGrowthData(ctx, query, childID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}

	return rows, total.(int), nil
}

func (r *SQLRepository) ExistsGrowthDataOnDate(ctx context.Context, childID uuid.UUID, inputDate time.Time, excludeID uuid.UUID) (bool, error) {
	result, err := r.growthCB.Execute(func() (interface{}, error) {
		var exists bool
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT EXISTS (
				SELECT 1 FROM growth_data
				WHERE child_id = $1 AND input_date = $2 AND id <> $3 AND NOT is_deleted
			)`
			return r.db.QueryRowContext(ctx, query, childID, inputDate, excludeID).Scan(&exists)
		})
		if err != nil {
			return nil, err
		}
		return exists, nil
	})

	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

func (r *SQLRepository) UpdateGrowthData(ctx context.Context, data *domain.GrowthData) error {
	growthResult, err := json.Marshal(data.GrowthResult)
	if err != nil {
		return fmt.Errorf("failed to marshal growth result: %w", err)
	}

	_, err = r.growthCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `UPDATE growth_data SET
				input_date = $2, height = $3, weight = $4, head_circumference = $5, arm_circumference = $6,
				bmi = $7, growth_result = $8, updated_at = $9
				WHERE id = $1 AND NOT is_deleted`
			res, err := r.db.ExecContext(ctx, query,
				data.ID, data.InputDate, data.Height, data.Weight,
				nullFloat(data.HeadCircumference), nullFloat(data.ArmCircumference),
				data.Bmi, growthResult, data.UpdatedAt)
			if err != nil {
				return err
			}
			return expectRow(res, "growth data")
		})
	})
	return err
}

// DeleteGrowthData soft-deletes; the row stays for audit but is hidden from every read
func (r *SQLRepository) DeleteGrowthData(ctx context.Context, id uuid.UUID) error {
	_, err := r.growthCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `UPDATE growth_data SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`
			res, err := r.db.ExecContext(ctx, query, id)
			if err != nil {
				return err
			}
			return expectRow(res, "growth data")
		})
	})
	return err
}

func (r *SQLRepository) queryGrowthData(ctx context.Context, query string, args ...interface{}) ([]*domain.GrowthData, error) {
	result, err := r.growthCB.Execute(func() (interface{}, error) {
		var list []*domain.GrowthData
		err := r.executeWithRetry(ctx, func() error {
			list = nil
			rows, err := r.db.QueryContext(ctx, query, args...)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				data, err := scanGrowthData(rows)
				if err != nil {
					return err
				}
				list = append(list, data)
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

	return result.([]*domain.GrowthData), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChild(row rowScanner) (*domain.Child, error) {
	var child domain.Child
	var gender int
	var velocity []byte

	err := row.Scan(&child.ID, &child.Name, &child.BirthDate, &gender, &child.Note, &child.GuardianID,
		&velocity, &child.CreatedAt, &child.UpdatedAt)
	if err != nil {
		return nil, err
	}

	child.Gender = domain.Gender(gender)
	child.BirthDate = domain.NormalizeDate(child.BirthDate)
	child.GrowthVelocityResult = []domain.GrowthVelocityResult{}
	if len(velocity) > 0 {
		if err := json.Unmarshal(velocity, &child.GrowthVelocityResult); err != nil {
			return nil, fmt.Errorf("failed to unmarshal growth velocity: %w", err)
		}
	}

	return &child, nil
}

func scanGrowthData(row rowScanner) (*domain.GrowthData, error) {
	var data domain.GrowthData
	var headCircumference, armCircumference sql.NullFloat64
	var growthResult []byte

	err := row.Scan(&data.ID, &data.ChildID, &data.InputDate, &data.Height, &data.Weight,
		&headCircumference, &armCircumference, &data.Bmi, &growthResult, &data.CreatedBy,
		&data.IsDeleted, &data.CreatedAt, &data.UpdatedAt)
	if err != nil {
		return nil, err
	}

	data.InputDate = domain.NormalizeDate(data.InputDate)
	if headCircumference.Valid {
		data.HeadCircumference = &headCircumference.Float64
	}
	if armCircumference.Valid {
		data.ArmCircumference = &armCircumference.Float64
	}
	data.GrowthResult = domain.NewGrowthResult()
	if len(growthResult) > 0 {
		if err := json.Unmarshal(growthResult, &data.GrowthResult); err != nil {
			return nil, fmt.Errorf("failed to unmarshal growth result: %w", err)
		}
	}

	return &data, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nonNilVelocity(results []domain.GrowthVelocityResult) []domain.GrowthVelocityResult {
	if results == nil {
		return []domain.GrowthVelocityResult{}
	}
	return results
}

// expectRow converts "no row affected" into a not-found error
func expectRow(res sql.Result, entity string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s %w", entity, domain.ErrNotFound)
	}
	return nil
}

// Ensure SQLRepository implements the interfaces
var _ ports.ChildRepository = (*SQLRepository)(nil)
var _ ports.UserRepository = (*SQLRepository)(nil)
var _ ports.GrowthDataRepository = (*SQLRepository)(nil)
