package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"github.com/google/uuid"
)

// ChildService implements business logic for child operations
// Enforces RBAC and guardianship rules
type ChildService struct {
	childRepo ports.ChildRepository
	userRepo  ports.UserRepository
	now       func() time.Time
}

// NewChildService creates a new child service
func NewChildService(childRepo ports.ChildRepository, userRepo ports.UserRepository) *ChildService {
	return &ChildService{
		childRepo: childRepo,
		userRepo:  userRepo,
		now:       time.Now,
	}
}

// CreateChild registers a child
// User: guardian is the requester. Admin: guardian_id from the request, or self. Doctor: forbidden.
func (s *ChildService) CreateChild(ctx context.Context, requester domain.Requester, req ports.CreateChildRequest) (*domain.Child, error) {
	if requester.IsDoctor() {
		return nil, fmt.Errorf("%w: doctors cannot register children", domain.ErrForbidden)
	}

	// Input validation
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: child name cannot be empty", domain.ErrInvalidArgument)
	}
	if req.BirthDate.IsZero() {
		return nil, fmt.Errorf("%w: birth date is required", domain.ErrInvalidArgument)
	}
	birthDate := domain.NormalizeDate(req.BirthDate)
	if birthDate.After(domain.NormalizeDate(s.now())) {
		return nil, fmt.Errorf("%w: birth date cannot be in the future", domain.ErrInvalidArgument)
	}
	if !req.Gender.Valid() {
		return nil, fmt.Errorf("%w: unknown gender %d", domain.ErrInvalidArgument, req.Gender)
	}

	guardianID := requester.UserID
	if requester.IsAdmin() && req.GuardianID != uuid.Nil {
		guardianID = req.GuardianID
	}

	now := s.now()
	child := &domain.Child{
		ID:                   uuid.New(),
		Name:                 name,
		BirthDate:            birthDate,
		Gender:               req.Gender,
		Note:                 req.Note,
		GuardianID:           guardianID,
		GrowthVelocityResult: []domain.GrowthVelocityResult{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.childRepo.CreateChild(ctx, child); err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	return child, nil
}

// GetChild retrieves a child by ID
// Doctor and Admin can access any, User only their own
func (s *ChildService) GetChild(ctx context.Context, requester domain.Requester, childID uuid.UUID) (*domain.Child, error) {
	child, err := s.childRepo.GetChildByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, fmt.Errorf("child %w", domain.ErrNotFound)
	}
	if err := authorizeChild(requester, child); err != nil {
		return nil, err
	}

	return child, nil
}

// ListChildren retrieves children based on role
// Doctor and Admin: all children, User: only their own
func (s *ChildService) ListChildren(ctx context.Context, requester domain.Requester) ([]*domain.Child, error) {
	all := requester.Role != domain.RoleUser

	children, err := s.childRepo.ListChildren(ctx, requester.UserID, all)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	if children == nil {
		children = []*domain.Child{}
	}

	return children, nil
}

// RegisterUser records a user announced by the identity service
func (s *ChildService) RegisterUser(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	normalized, ok := domain.ParseRole(string(role))
	if !ok {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidArgument, role)
	}
	if err := s.userRepo.UpsertUser(ctx, userID, normalized); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}
