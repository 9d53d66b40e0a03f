package services_test

import (
	"context"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockChildRepository is a mock implementation of ChildRepository
type MockChildRepository struct {
	mock.Mock
}

func (m *MockChildRepository) CreateChild(ctx context.Context, child *domain.Child) error {
	args := m.Called(ctx, child)
	return args.Error(0)
}

func (m *MockChildRepository) GetChildByID(ctx context.Context, childID uuid.UUID) (*domain.Child, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Child), args.Error(1)
}

func (m *MockChildRepository) ListChildren(ctx context.Context, guardianID uuid.UUID, all bool) ([]*domain.Child, error) {
	args := m.Called(ctx, guardianID, all)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Child), args.Error(1)
}

func (m *MockChildRepository) UpdateChildVelocity(ctx context.Context, childID uuid.UUID, results []domain.GrowthVelocityResult) error {
	args := m.Called(ctx, childID, results)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) UpsertUser(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockUserRepository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockGrowthDataRepository is a mock implementation of GrowthDataRepository
type MockGrowthDataRepository struct {
	mock.Mock
}

func (m *MockGrowthDataRepository) CreateGrowthData(ctx context.Context, data *domain.GrowthData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockGrowthDataRepository) GetGrowthDataByID(ctx context.Context, id uuid.UUID) (*domain.GrowthData, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GrowthData), args.Error(1)
}

func (m *MockGrowthDataRepository) GetAllGrowthDataByChildID(ctx context.Context, childID uuid.UUID) ([]*domain.GrowthData, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GrowthData), args.Error(1)
}

func (m *MockGrowthDataRepository) ListGrowthDataByChildID(ctx context.Context, childID uuid.UUID, page domain.PageQuery) ([]*domain.GrowthData, int, error) {
	args := m.Called(ctx, childID, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.GrowthData), args.Int(1), args.Error(2)
}

func (m *MockGrowthDataRepository) ExistsGrowthDataOnDate(ctx context.Context, childID uuid.UUID, inputDate time.Time, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, childID, inputDate, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGrowthDataRepository) UpdateGrowthData(ctx context.Context, data *domain.GrowthData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockGrowthDataRepository) DeleteGrowthData(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReferenceRepository is a mock implementation of ReferenceRepository
type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) GetGrowthMetricsForAge(ctx context.Context, gender domain.Gender, age int, unit domain.AgeUnit) ([]domain.GrowthMetricForAge, error) {
	args := m.Called(ctx, gender, age, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GrowthMetricForAge), args.Error(1)
}

func (m *MockReferenceRepository) GetGrowthVelocityStandards(ctx context.Context, gender domain.Gender) ([]domain.GrowthVelocityStandard, error) {
	args := m.Called(ctx, gender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GrowthVelocityStandard), args.Error(1)
}

func (m *MockReferenceRepository) GetWeightForLength(ctx context.Context, height float64, gender domain.Gender) ([]domain.WeightForLength, error) {
	args := m.Called(ctx, height, gender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WeightForLength), args.Error(1)
}

// MockGrowthAlertPublisher is a mock implementation of GrowthAlertPublisher
type MockGrowthAlertPublisher struct {
	mock.Mock
}

func (m *MockGrowthAlertPublisher) PublishGrowthAlert(ctx context.Context, child *domain.Child, data *domain.GrowthData) error {
	args := m.Called(ctx, child, data)
	return args.Error(0)
}
