package ports

import (
	"context"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/google/uuid"
)

// ChildService defines the business logic interface for child operations
type ChildService interface {
	// CreateChild registers a child. A User becomes the guardian, an Admin may name one.
	// Doctors cannot register children.
	CreateChild(ctx context.Context, requester domain.Requester, req CreateChildRequest) (*domain.Child, error)

	// GetChild enforces ownership for the User role
	GetChild(ctx context.Context, requester domain.Requester, childID uuid.UUID) (*domain.Child, error)

	// ListChildren returns the User's own children, or every child for Doctor and Admin
	ListChildren(ctx context.Context, requester domain.Requester) ([]*domain.Child, error)

	// RegisterUser records a user announced by the identity service
	RegisterUser(ctx context.Context, userID uuid.UUID, role domain.Role) error
}

// GrowthDataService defines the business logic interface for growth measurements
type GrowthDataService interface {
	// CreateGrowthData stores a measurement with its computed result and returns the
	// child's freshly recomputed velocity report
	CreateGrowthData(ctx context.Context, requester domain.Requester, childID uuid.UUID, req CreateGrowthDataRequest) (*domain.GrowthData, []domain.GrowthVelocityResult, error)

	GetGrowthDataByID(ctx context.Context, requester domain.Requester, id uuid.UUID) (*domain.GrowthData, error)

	ListGrowthDataByChild(ctx context.Context, requester domain.Requester, childID uuid.UUID, page domain.PageQuery) (domain.PaginationResult[*domain.GrowthData], error)

	// UpdateGrowthData applies a partial update; zero values mean "not provided"
	UpdateGrowthData(ctx context.Context, requester domain.Requester, id uuid.UUID, req UpdateGrowthDataRequest) (*domain.GrowthData, error)

	DeleteGrowthData(ctx context.Context, requester domain.Requester, id uuid.UUID) (bool, error)

	// GenerateGrowthVelocity recomputes and stores the child's velocity report
	GenerateGrowthVelocity(ctx context.Context, requester domain.Requester, childID uuid.UUID) ([]domain.GrowthVelocityResult, error)

	// GeneratePublicGrowthResult computes a result for an anonymous caller without storing anything
	GeneratePublicGrowthResult(ctx context.Context, req PublicGrowthRequest) (*domain.GrowthData, error)
}

// CreateChildRequest is the input for registering a child
type CreateChildRequest struct {
	Name       string
	BirthDate  time.Time
	Gender     domain.Gender
	Note       string
	GuardianID uuid.UUID // Honoured for Admin only
}

// CreateGrowthDataRequest is the input for a new measurement
type CreateGrowthDataRequest struct {
	InputDate         time.Time
	Height            float64 // cm
	Weight            float64 // kg
	HeadCircumference *float64
	ArmCircumference  *float64
}

// UpdateGrowthDataRequest carries only the fields to change.
// A zero InputDate and non-positive values are ignored.
type UpdateGrowthDataRequest struct {
	InputDate         time.Time
	Height            float64
	Weight            float64
	HeadCircumference *float64
	ArmCircumference  *float64
}

// PublicGrowthRequest is an anonymous measurement with the child's details inline
type PublicGrowthRequest struct {
	BirthDate time.Time
	Gender    domain.Gender
	CreateGrowthDataRequest
}
