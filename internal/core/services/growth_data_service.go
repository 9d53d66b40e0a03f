package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/growth"
	"github.com/IANDYI/growth-service/internal/core/ports"
	"github.com/google/uuid"
)

// Accepted measurement ranges
const (
	MinHeight = 0.1
	MaxHeight = 300.0
	MinWeight = 0.1
	MaxWeight = 200.0
)

// GrowthDataService implements business logic for growth measurements
// Enforces RBAC and guardianship, recomputes the velocity report and publishes
// alerts for irregular results
type GrowthDataService struct {
	growthRepo     ports.GrowthDataRepository
	childRepo      ports.ChildRepository
	userRepo       ports.UserRepository
	refs           ports.ReferenceRepository
	alertPublisher ports.GrowthAlertPublisher
	generator      *growth.ResultGenerator
	now            func() time.Time
	wflResolution  float64
}

type GrowthDataOption func(*GrowthDataService)

// WithClock replaces time.Now (tests)
func WithClock(now func() time.Time) GrowthDataOption {
	return func(s *GrowthDataService) {
		s.now = now
	}
}

// WithWeightForLengthResolution sets the height bucket of weight-for-length lookups
func WithWeightForLengthResolution(resolution float64) GrowthDataOption {
	return func(s *GrowthDataService) {
		s.wflResolution = resolution
	}
}

// NewGrowthDataService creates a new growth data service
// alertPublisher may be nil, in which case irregular results are only logged
func NewGrowthDataService(
	growthRepo ports.GrowthDataRepository,
	childRepo ports.ChildRepository,
	userRepo ports.UserRepository,
	refs ports.ReferenceRepository,
	alertPublisher ports.GrowthAlertPublisher,
	opts ...GrowthDataOption,
) *GrowthDataService {
	s := &GrowthDataService{
		growthRepo:     growthRepo,
		childRepo:      childRepo,
		userRepo:       userRepo,
		refs:           refs,
		alertPublisher: alertPublisher,
		now:            time.Now,
		wflResolution:  growth.DefaultWeightForLengthResolution,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.generator = growth.NewResultGenerator(refs, growth.WithWeightForLengthResolution(s.wflResolution))
	return s
}

// CreateGrowthData stores a measurement for a child and recomputes the child's velocity report
func (s *GrowthDataService) CreateGrowthData(
	ctx context.Context,
	requester domain.Requester,
	childID uuid.UUID,
	req ports.CreateGrowthDataRequest,
) (*domain.GrowthData, []domain.GrowthVelocityResult, error) {
	if err := s.validateMeasurement(req.InputDate, req.Height, req.Weight); err != nil {
		return nil, nil, err
	}

	if err := s.requireUser(ctx, requester); err != nil {
		return nil, nil, err
	}
	if requester.IsDoctor() {
		return nil, nil, fmt.Errorf("%w: doctors cannot create growth data", domain.ErrForbidden)
	}

	child, err := s.loadChild(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorizeChild(requester, child); err != nil {
		return nil, nil, err
	}

	inputDate := domain.NormalizeDate(req.InputDate)
	if inputDate.Before(domain.NormalizeDate(child.BirthDate)) {
		return nil, nil, fmt.Errorf("%w: input date is before the child's birth date", domain.ErrInvalidArgument)
	}

	exists, err := s.growthRepo.ExistsGrowthDataOnDate(ctx, childID, inputDate, uuid.Nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing growth data: %w", err)
	}
	if exists {
		return nil, nil, fmt.Errorf("%w: growth data of this date already exists", domain.ErrConflict)
	}

	now := s.now()
	data := &domain.GrowthData{
		ID:                uuid.New(),
		ChildID:           childID,
		InputDate:         inputDate,
		Height:            req.Height,
		Weight:            req.Weight,
		HeadCircumference: domain.PositiveOrNil(req.HeadCircumference),
		ArmCircumference:  domain.PositiveOrNil(req.ArmCircumference),
		CreatedBy:         requester.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.applyResult(ctx, data, child); err != nil {
		return nil, nil, err
	}

	if err := s.growthRepo.CreateGrowthData(ctx, data); err != nil {
		return nil, nil, fmt.Errorf("failed to create growth data: %w", err)
	}
	s.logGrowthData(data, "created")
	s.publishIfIrregular(child, data)

	velocity, err := s.recomputeVelocity(ctx, child)
	if err != nil {
		return nil, nil, err
	}

	return data, velocity, nil
}

// GetGrowthDataByID retrieves one measurement
// Doctor and Admin can read any, User only their children's
func (s *GrowthDataService) GetGrowthDataByID(ctx context.Context, requester domain.Requester, id uuid.UUID) (*domain.GrowthData, error) {
	if err := s.requireUser(ctx, requester); err != nil {
		return nil, err
	}

	data, err := s.loadGrowthData(ctx, id)
	if err != nil {
		return nil, err
	}
	child, err := s.loadChild(ctx, data.ChildID)
	if err != nil {
		return nil, err
	}
	if err := authorizeChild(requester, child); err != nil {
		return nil, err
	}

	return data, nil
}

// ListGrowthDataByChild returns one page of a child's measurements
func (s *GrowthDataService) ListGrowthDataByChild(
	ctx context.Context,
	requester domain.Requester,
	childID uuid.UUID,
	page domain.PageQuery,
) (domain.PaginationResult[*domain.GrowthData], error) {
	page = page.Normalize()

	if err := s.requireUser(ctx, requester); err != nil {
		return domain.PaginationResult[*domain.GrowthData]{}, err
	}
	child, err := s.loadChild(ctx, childID)
	if err != nil {
		return domain.PaginationResult[*domain.GrowthData]{}, err
	}
	if err := authorizeChild(requester, child); err != nil {
		return domain.PaginationResult[*domain.GrowthData]{}, err
	}

	rows, total, err := s.growthRepo.ListGrowthDataByChildID(ctx, childID, page)
	if err != nil {
		return domain.PaginationResult[*domain.GrowthData]{}, fmt.Errorf("failed to list growth data: %w", err)
	}

	return domain.NewPaginationResult(page, total, rows), nil
}

// UpdateGrowthData merges the provided fields into a measurement and recomputes its result.
// Only positive values and a non-zero input date overwrite.
func (s *GrowthDataService) UpdateGrowthData(
	ctx context.Context,
	requester domain.Requester,
	id uuid.UUID,
	req ports.UpdateGrowthDataRequest,
) (*domain.GrowthData, error) {
	// Zero and negative values mean "not provided"
	if req.Height > MaxHeight || (req.Height > 0 && req.Height < MinHeight) {
		return nil, fmt.Errorf("%w: height must be between %.1f and %.1f cm", domain.ErrInvalidArgument, MinHeight, MaxHeight)
	}
	if req.Weight > MaxWeight || (req.Weight > 0 && req.Weight < MinWeight) {
		return nil, fmt.Errorf("%w: weight must be between %.1f and %.1f kg", domain.ErrInvalidArgument, MinWeight, MaxWeight)
	}

	if err := s.requireUser(ctx, requester); err != nil {
		return nil, err
	}
	if requester.IsDoctor() {
		return nil, fmt.Errorf("%w: doctors cannot update growth data", domain.ErrForbidden)
	}

	data, err := s.loadGrowthData(ctx, id)
	if err != nil {
		return nil, err
	}
	child, err := s.loadChild(ctx, data.ChildID)
	if err != nil {
		return nil, err
	}
	if err := authorizeChild(requester, child); err != nil {
		return nil, err
	}

	if !req.InputDate.IsZero() {
		inputDate := domain.NormalizeDate(req.InputDate)
		if !inputDate.Equal(data.InputDate) {
			if inputDate.After(domain.NormalizeDate(s.now())) {
				return nil, fmt.Errorf("%w: input date cannot be in the future", domain.ErrInvalidArgument)
			}
			if inputDate.Before(domain.NormalizeDate(child.BirthDate)) {
				return nil, fmt.Errorf("%w: input date is before the child's birth date", domain.ErrInvalidArgument)
			}
			exists, err := s.growthRepo.ExistsGrowthDataOnDate(ctx, data.ChildID, inputDate, data.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check existing growth data: %w", err)
			}
			if exists {
				return nil, fmt.Errorf("%w: growth data of this date already exists", domain.ErrConflict)
			}
			data.InputDate = inputDate
		}
	}
	if req.Height > 0 {
		data.Height = req.Height
	}
	if req.Weight > 0 {
		data.Weight = req.Weight
	}
	if hc := domain.PositiveOrNil(req.HeadCircumference); hc != nil {
		data.HeadCircumference = hc
	}
	if ac := domain.PositiveOrNil(req.ArmCircumference); ac != nil {
		data.ArmCircumference = ac
	}

	if err := s.applyResult(ctx, data, child); err != nil {
		return nil, err
	}
	data.UpdatedAt = s.now()

	if err := s.growthRepo.UpdateGrowthData(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to update growth data: %w", err)
	}
	s.logGrowthData(data, "updated")
	s.publishIfIrregular(child, data)

	if _, err := s.recomputeVelocity(ctx, child); err != nil {
		return nil, err
	}

	return data, nil
}

// DeleteGrowthData soft-deletes a measurement (guardian or Admin)
func (s *GrowthDataService) DeleteGrowthData(ctx context.Context, requester domain.Requester, id uuid.UUID) (bool, error) {
	if err := s.requireUser(ctx, requester); err != nil {
		return false, err
	}
	if requester.IsDoctor() {
		return false, fmt.Errorf("%w: doctors cannot delete growth data", domain.ErrForbidden)
	}

	data, err := s.loadGrowthData(ctx, id)
	if err != nil {
		return false, err
	}
	child, err := s.loadChild(ctx, data.ChildID)
	if err != nil {
		return false, err
	}
	if err := authorizeChild(requester, child); err != nil {
		return false, err
	}

	if err := s.growthRepo.DeleteGrowthData(ctx, id); err != nil {
		return false, fmt.Errorf("failed to delete growth data: %w", err)
	}
	s.logGrowthData(data, "deleted")

	if _, err := s.recomputeVelocity(ctx, child); err != nil {
		return false, err
	}

	return true, nil
}

// GenerateGrowthVelocity recomputes the child's velocity report on demand
func (s *GrowthDataService) GenerateGrowthVelocity(ctx context.Context, requester domain.Requester, childID uuid.UUID) ([]domain.GrowthVelocityResult, error) {
	if err := s.requireUser(ctx, requester); err != nil {
		return nil, err
	}
	child, err := s.loadChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if err := authorizeChild(requester, child); err != nil {
		return nil, err
	}

	return s.recomputeVelocity(ctx, child)
}

// GeneratePublicGrowthResult interprets a measurement without a stored child
func (s *GrowthDataService) GeneratePublicGrowthResult(ctx context.Context, req ports.PublicGrowthRequest) (*domain.GrowthData, error) {
	if !req.Gender.Valid() {
		return nil, fmt.Errorf("%w: unknown gender %d", domain.ErrInvalidArgument, req.Gender)
	}
	if req.BirthDate.IsZero() {
		return nil, fmt.Errorf("%w: birth date is required", domain.ErrInvalidArgument)
	}
	if err := s.validateMeasurement(req.InputDate, req.Height, req.Weight); err != nil {
		return nil, err
	}

	birthDate := domain.NormalizeDate(req.BirthDate)
	inputDate := domain.NormalizeDate(req.InputDate)
	if inputDate.Before(birthDate) {
		return nil, fmt.Errorf("%w: input date is before the birth date", domain.ErrInvalidArgument)
	}

	data := &domain.GrowthData{
		InputDate:         inputDate,
		Height:            req.Height,
		Weight:            req.Weight,
		HeadCircumference: domain.PositiveOrNil(req.HeadCircumference),
		ArmCircumference:  domain.PositiveOrNil(req.ArmCircumference),
		Bmi:               domain.CalculateBMI(req.Weight, req.Height),
	}
	result, err := s.generator.GeneratePublic(ctx, data, birthDate, req.Gender)
	if err != nil {
		return nil, fmt.Errorf("failed to generate growth result: %w", err)
	}
	data.GrowthResult = result

	return data, nil
}

// applyResult recomputes BMI and the growth result from the current field values
func (s *GrowthDataService) applyResult(ctx context.Context, data *domain.GrowthData, child *domain.Child) error {
	data.Bmi = domain.CalculateBMI(data.Weight, data.Height)
	result, err := s.generator.GenerateForChild(ctx, data, child)
	if err != nil {
		return fmt.Errorf("failed to generate growth result: %w", err)
	}
	data.GrowthResult = result
	return nil
}

// recomputeVelocity replaces the child's cached velocity report
func (s *GrowthDataService) recomputeVelocity(ctx context.Context, child *domain.Child) ([]domain.GrowthVelocityResult, error) {
	var intervals []growth.VelocityInterval
	if growth.EligibleForVelocity(child.BirthDate, s.now()) {
		rows, err := s.refs.GetGrowthVelocityStandards(ctx, child.Gender)
		if err != nil {
			return nil, fmt.Errorf("failed to load velocity standards: %w", err)
		}
		intervals = growth.SelectIntervals(rows)
	}

	var history []*domain.GrowthData
	if len(intervals) > 0 {
		var err error
		history, err = s.growthRepo.GetAllGrowthDataByChildID(ctx, child.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load growth history: %w", err)
		}
	}

	results := growth.ComputeVelocity(child, history, intervals)
	if err := s.childRepo.UpdateChildVelocity(ctx, child.ID, results); err != nil {
		return nil, fmt.Errorf("failed to store growth velocity: %w", err)
	}
	child.GrowthVelocityResult = results

	return results, nil
}

func (s *GrowthDataService) validateMeasurement(inputDate time.Time, height, weight float64) error {
	if height < MinHeight || height > MaxHeight {
		return fmt.Errorf("%w: height must be between %.1f and %.1f cm", domain.ErrInvalidArgument, MinHeight, MaxHeight)
	}
	if weight < MinWeight || weight > MaxWeight {
		return fmt.Errorf("%w: weight must be between %.1f and %.1f kg", domain.ErrInvalidArgument, MinWeight, MaxWeight)
	}
	if inputDate.IsZero() {
		return fmt.Errorf("%w: input date is required", domain.ErrInvalidArgument)
	}
	if domain.NormalizeDate(inputDate).After(domain.NormalizeDate(s.now())) {
		return fmt.Errorf("%w: input date cannot be in the future", domain.ErrInvalidArgument)
	}
	return nil
}

func (s *GrowthDataService) requireUser(ctx context.Context, requester domain.Requester) error {
	exists, err := s.userRepo.UserExists(ctx, requester.UserID)
	if err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %w", domain.ErrNotFound)
	}
	return nil
}

func (s *GrowthDataService) loadChild(ctx context.Context, childID uuid.UUID) (*domain.Child, error) {
	child, err := s.childRepo.GetChildByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, fmt.Errorf("child %w", domain.ErrNotFound)
	}
	return child, nil
}

func (s *GrowthDataService) loadGrowthData(ctx context.Context, id uuid.UUID) (*domain.GrowthData, error) {
	data, err := s.growthRepo.GetGrowthDataByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get growth data: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("growth data %w", domain.ErrNotFound)
	}
	return data, nil
}

// authorizeChild lets Doctor and Admin through and restricts User to their own children
func authorizeChild(requester domain.Requester, child *domain.Child) error {
	if requester.Role == domain.RoleUser && !child.IsGuardian(requester.UserID) {
		return fmt.Errorf("%w: child belongs to another guardian", domain.ErrForbidden)
	}
	return nil
}

// publishIfIrregular sends an alert in the background so the response is not delayed
func (s *GrowthDataService) publishIfIrregular(child *domain.Child, data *domain.GrowthData) {
	if !data.GrowthResult.Irregular {
		return
	}
	s.logGrowthData(data, "irregular_result")
	if s.alertPublisher == nil {
		return
	}
	// The caller keeps mutating child (velocity report), so the goroutine works on copies
	childSnapshot, dataSnapshot := *child, *data
	go func() {
		// Use background context to avoid cancellation
		bgCtx := context.Background()
		if err := s.alertPublisher.PublishGrowthAlert(bgCtx, &childSnapshot, &dataSnapshot); err != nil {
			log.Printf("Failed to publish growth alert for growth data %s: %v", dataSnapshot.ID, err)
		} else {
			s.logGrowthData(&dataSnapshot, "alert_published")
		}
	}()
}

// logGrowthData logs structured JSON for growth data events
func (s *GrowthDataService) logGrowthData(d *domain.GrowthData, event string) {
	logEntry := map[string]interface{}{
		"event":          event,
		"growth_data_id": d.ID.String(),
		"child_id":       d.ChildID.String(),
		"input_date":     d.InputDate.Format("2006-01-02"),
		"height":         d.Height,
		"weight":         d.Weight,
		"bmi":            d.Bmi,
		"bmi_level":      string(d.GrowthResult.Bmi.Level),
		"irregular":      d.GrowthResult.Irregular,
	}
	if d.HeadCircumference != nil {
		logEntry["head_circumference"] = *d.HeadCircumference
	}
	if d.ArmCircumference != nil {
		logEntry["arm_circumference"] = *d.ArmCircumference
	}
	if metrics := d.GrowthResult.IrregularMetrics(); len(metrics) > 0 {
		logEntry["irregular_metrics"] = metrics
	}

	jsonBytes, err := json.Marshal(logEntry)
	if err != nil {
		log.Printf("Failed to marshal growth data log entry: %v", err)
		return
	}
	log.Printf("%s", string(jsonBytes))
}
