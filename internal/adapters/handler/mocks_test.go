package handler_test

import (
	"context"
	"net/http"

	"github.com/IANDYI/growth-service/internal/adapters/middleware"
	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockChildService is a mock implementation of ChildService
type MockChildService struct {
	mock.Mock
}

func (m *MockChildService) CreateChild(ctx context.Context, requester domain.Requester, req ports.CreateChildRequest) (*domain.Child, error) {
	args := m.Called(ctx, requester, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Child), args.Error(1)
}

func (m *MockChildService) GetChild(ctx context.Context, requester domain.Requester, childID uuid.UUID) (*domain.Child, error) {
	args := m.Called(ctx, requester, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Child), args.Error(1)
}

func (m *MockChildService) ListChildren(ctx context.Context, requester domain.Requester) ([]*domain.Child, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Child), args.Error(1)
}

func (m *MockChildService) RegisterUser(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

// MockGrowthDataService is a mock implementation of GrowthDataService
type MockGrowthDataService struct {
	mock.Mock
}

func (m *MockGrowthDataService) CreateGrowthData(ctx context.Context, requester domain.Requester, childID uuid.UUID, req ports.CreateGrowthDataRequest) (*domain.GrowthData, []domain.GrowthVelocityResult, error) {
	args := m.Called(ctx, requester, childID, req)
	var velocity []domain.GrowthVelocityResult
	if v := args.Get(1); v != nil {
		velocity = v.([]domain.GrowthVelocityResult)
	}
	if args.Get(0) == nil {
		return nil, velocity, args.Error(2)
	}
	return args.Get(0).(*domain.GrowthData), velocity, args.Error(2)
}

func (m *MockGrowthDataService) GetGrowthDataByID(ctx context.Context, requester domain.Requester, id uuid.UUID) (*domain.GrowthData, error) {
	args := m.Called(ctx, requester, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GrowthData), args.Error(1)
}

func (m *MockGrowthDataService) ListGrowthDataByChild(ctx context.Context, requester domain.Requester, childID uuid.UUID, page domain.PageQuery) (domain.PaginationResult[*domain.GrowthData], error) {
	args := m.Called(ctx, requester, childID, page)
	return args.Get(0).(domain.PaginationResult[*domain.GrowthData]), args.Error(1)
}

func (m *MockGrowthDataService) UpdateGrowthData(ctx context.Context, requester domain.Requester, id uuid.UUID, req ports.UpdateGrowthDataRequest) (*domain.GrowthData, error) {
	args := m.Called(ctx, requester, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GrowthData), args.Error(1)
}

func (m *MockGrowthDataService) DeleteGrowthData(ctx context.Context, requester domain.Requester, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, requester, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockGrowthDataService) GenerateGrowthVelocity(ctx context.Context, requester domain.Requester, childID uuid.UUID) ([]domain.GrowthVelocityResult, error) {
	args := m.Called(ctx, requester, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GrowthVelocityResult), args.Error(1)
}

func (m *MockGrowthDataService) GeneratePublicGrowthResult(ctx context.Context, req ports.PublicGrowthRequest) (*domain.GrowthData, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GrowthData), args.Error(1)
}

// withAuth puts the identity RequireAuth would have stored into the request context
func withAuth(req *http.Request, userID uuid.UUID, role domain.Role) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, middleware.RoleKey, string(role))
	return req.WithContext(ctx)
}
