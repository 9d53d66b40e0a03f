package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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
	return m.Called(ctx, userID, role).Error(0)
}

func TestHandleRegistration_UserOnly(t *testing.T) {
	childService := new(MockChildService)
	consumer := &RegistrationConsumer{childService: childService}

	userID := uuid.New()
	childService.On("RegisterUser", mock.Anything, userID, domain.RoleDoctor).Return(nil)

	err := consumer.HandleRegistration(context.Background(), []byte(`{"user_id":"`+userID.String()+`","role":"DOCTOR"}`))

	require.NoError(t, err)
	childService.AssertExpectations(t)
	childService.AssertNotCalled(t, "CreateChild", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleRegistration_WithChild(t *testing.T) {
	childService := new(MockChildService)
	consumer := &RegistrationConsumer{childService: childService}

	userID := uuid.New()
	childService.On("RegisterUser", mock.Anything, userID, domain.RoleUser).Return(nil)
	childService.On("CreateChild", mock.Anything, systemRequester, ports.CreateChildRequest{
		Name:       "Ada",
		BirthDate:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Gender:     domain.GenderGirl,
		GuardianID: userID,
	}).Return(&domain.Child{ID: uuid.New(), GuardianID: userID}, nil)

	body := `{"user_id":"` + userID.String() + `","role":"User","child":{"name":"Ada","birth_date":"2024-01-31","gender":"girl"}}`
	err := consumer.HandleRegistration(context.Background(), []byte(body))

	require.NoError(t, err)
	childService.AssertExpectations(t)
}

func TestHandleRegistration_InvalidMessages(t *testing.T) {
	userID := uuid.NewString()
	tests := []struct {
		name string
		body string
	}{
		{"not json", `user registered`},
		{"bad user id", `{"user_id":"42","role":"User"}`},
		{"unknown role", `{"user_id":"` + userID + `","role":"Nurse"}`},
		{"bad birth date", `{"user_id":"` + userID + `","role":"User","child":{"name":"Ada","birth_date":"31-01-2024","gender":"girl"}}`},
		{"bad gender", `{"user_id":"` + userID + `","role":"User","child":{"name":"Ada","birth_date":"2024-01-31","gender":"x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			childService := new(MockChildService)
			consumer := &RegistrationConsumer{childService: childService}

			err := consumer.HandleRegistration(context.Background(), []byte(tt.body))

			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			childService.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleRegistration_TransientFailure(t *testing.T) {
	childService := new(MockChildService)
	consumer := &RegistrationConsumer{childService: childService}

	userID := uuid.New()
	childService.On("RegisterUser", mock.Anything, userID, domain.RoleAdmin).Return(errors.New("connection refused"))

	err := consumer.HandleRegistration(context.Background(), []byte(`{"user_id":"`+userID.String()+`","role":"Admin"}`))

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNewGrowthAlertEvent(t *testing.T) {
	child := &domain.Child{ID: uuid.New(), GuardianID: uuid.New()}
	now := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

	result := domain.NewGrowthResult()
	result.Weight.Irregular = true
	result.Irregular = true
	data := &domain.GrowthData{
		ID:           uuid.New(),
		ChildID:      child.ID,
		InputDate:    time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		GrowthResult: result,
	}

	event := NewGrowthAlertEvent(child, data, now)
	assert.Equal(t, child.ID, event.ChildID)
	assert.Equal(t, child.GuardianID, event.GuardianID)
	assert.Equal(t, data.ID, event.GrowthDataID)
	assert.Equal(t, "2024-05-31", event.InputDate)
	assert.Equal(t, []string{"weight"}, event.IrregularMetrics)
	assert.Equal(t, "warning", event.Severity)
	assert.Equal(t, now, event.Timestamp)

	data.GrowthResult.Bmi.Irregular = true
	event = NewGrowthAlertEvent(child, data, now)
	assert.Equal(t, "critical", event.Severity)
	assert.Equal(t, []string{"bmi", "weight"}, event.IrregularMetrics)
}
