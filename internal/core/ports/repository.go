package ports

import (
	"context"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/google/uuid"
)

// ChildRepository defines the interface for child persistence
type ChildRepository interface {
	CreateChild(ctx context.Context, child *domain.Child) error

	// GetChildByID returns nil and no error when the child does not exist
	GetChildByID(ctx context.Context, childID uuid.UUID) (*domain.Child, error)

	// ListChildren returns every child when all is true, otherwise only the guardian's
	ListChildren(ctx context.Context, guardianID uuid.UUID, all bool) ([]*domain.Child, error)

	// UpdateChildVelocity replaces the cached velocity report of a child
	UpdateChildVelocity(ctx context.Context, childID uuid.UUID, results []domain.GrowthVelocityResult) error
}

// UserRepository is the local projection of users known to the identity service
type UserRepository interface {
	UpsertUser(ctx context.Context, userID uuid.UUID, role domain.Role) error
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// GrowthDataRepository defines the interface for measurement persistence.
// Deleted records are invisible to every read.
type GrowthDataRepository interface {
	// CreateGrowthData returns an error wrapping domain.ErrConflict when a live record
	// already exists for the same child and input date
	CreateGrowthData(ctx context.Context, data *domain.GrowthData) error

	// GetGrowthDataByID returns nil and no error when the record does not exist
	GetGrowthDataByID(ctx context.Context, id uuid.UUID) (*domain.GrowthData, error)

	// GetAllGrowthDataByChildID returns the child's history in creation order
	GetAllGrowthDataByChildID(ctx context.Context, childID uuid.UUID) ([]*domain.GrowthData, error)

	// ListGrowthDataByChildID returns one page, newest input date first, and the total count
	ListGrowthDataByChildID(ctx context.Context, childID uuid.UUID, page domain.PageQuery) ([]*domain.GrowthData, int, error)

	// ExistsGrowthDataOnDate checks for a live record on inputDate other than excludeID
	ExistsGrowthDataOnDate(ctx context.Context, childID uuid.UUID, inputDate time.Time, excludeID uuid.UUID) (bool, error)

	UpdateGrowthData(ctx context.Context, data *domain.GrowthData) error

	// DeleteGrowthData soft-deletes a record
	DeleteGrowthData(ctx context.Context, id uuid.UUID) error
}

// ReferenceRepository reads the immutable growth standards
type ReferenceRepository interface {
	// GetGrowthMetricsForAge returns one row per metric type for the given age
	GetGrowthMetricsForAge(ctx context.Context, gender domain.Gender, age int, unit domain.AgeUnit) ([]domain.GrowthMetricForAge, error)

	// GetGrowthVelocityStandards returns all velocity rows for a gender in their stored order
	GetGrowthVelocityStandards(ctx context.Context, gender domain.Gender) ([]domain.GrowthVelocityStandard, error)

	// GetWeightForLength returns rows for an already bucketed height
	GetWeightForLength(ctx context.Context, height float64, gender domain.Gender) ([]domain.WeightForLength, error)
}

// ReferenceImporter writes growth standards (admin tooling only)
type ReferenceImporter interface {
	SaveGrowthMetricForAge(ctx context.Context, row domain.GrowthMetricForAge) error
	SaveGrowthVelocityStandard(ctx context.Context, position int, row domain.GrowthVelocityStandard) error
	SaveWeightForLength(ctx context.Context, row domain.WeightForLength) error
}

// GrowthAlertPublisher publishes irregular growth results to RabbitMQ
type GrowthAlertPublisher interface {
	PublishGrowthAlert(ctx context.Context, child *domain.Child, data *domain.GrowthData) error
}
