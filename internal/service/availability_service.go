package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classbook/classbook-api/internal/models"
	appErrors "github.com/classbook/classbook-api/pkg/errors"
)

// Toggle outcomes.
const (
	ToggleActionAdded   = "added"
	ToggleActionRemoved = "removed"
)

type availabilityRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error)
	Find(ctx context.Context, teacherID string, dayOfWeek int, startTime string) (*models.AvailabilityRule, error)
	Create(ctx context.Context, rule *models.AvailabilityRule) error
	Delete(ctx context.Context, id string) error
}

// ToggleAvailabilityRequest locks or unlocks one recurring weekly hour.
type ToggleAvailabilityRequest struct {
	DayOfWeek *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
}

// ToggleResult reports which way the toggle went.
type ToggleResult struct {
	Action string                   `json:"action"`
	Rule   *models.AvailabilityRule `json:"rule,omitempty"`
}

// AvailabilityService manages a teacher's weekly locked-hour grid.
type AvailabilityService struct {
	repo      availabilityRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the teacher's locked weekly rules.
func (s *AvailabilityService) List(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error) {
	rules, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability rules")
	}
	return rules, nil
}

// Toggle flips the locked state of one weekly hour. Toggling the same
// hour twice restores the original state.
func (s *AvailabilityService) Toggle(ctx context.Context, teacherID string, req ToggleAvailabilityRequest) (*ToggleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be formatted as HH:MM")
	}
	if _, err := time.Parse("15:04", req.EndTime); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endTime must be formatted as HH:MM")
	}

	existing, err := s.repo.Find(ctx, teacherID, *req.DayOfWeek, req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up availability rule")
	}

	var result *ToggleResult
	if existing != nil {
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlock slot")
		}
		result = &ToggleResult{Action: ToggleActionRemoved}
	} else {
		rule := &models.AvailabilityRule{
			ID:        uuid.NewString(),
			TeacherID: teacherID,
			DayOfWeek: *req.DayOfWeek,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		}
		if err := s.repo.Create(ctx, rule); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock slot")
		}
		result = &ToggleResult{Action: ToggleActionAdded, Rule: rule}
	}

	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, SlotCachePattern(teacherID)); err != nil {
			s.logger.Warn("slot cache invalidation failed", zap.String("teacher_id", teacherID), zap.Error(err))
		}
	}

	s.logger.Info("availability toggled",
		zap.String("teacher_id", teacherID),
		zap.Int("day_of_week", *req.DayOfWeek),
		zap.String("start_time", req.StartTime),
		zap.String("action", result.Action))
	return result, nil
}
