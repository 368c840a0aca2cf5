package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classbook/classbook-api/internal/models"
	appErrors "github.com/classbook/classbook-api/pkg/errors"
	"github.com/classbook/classbook-api/pkg/tzclock"
)

type teacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	UpdateTimezone(ctx context.Context, id, timezone string) error
}

// UpdateTimezoneRequest changes the teacher's local clock.
type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone" validate:"required"`
}

// TeacherService exposes the authenticated teacher's profile.
type TeacherService struct {
	repo      teacherRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// UpdateTimezone validates and stores the teacher's IANA timezone.
// Cached slot listings become stale on a zone change, so they are
// invalidated.
func (s *TeacherService) UpdateTimezone(ctx context.Context, id string, req UpdateTimezoneRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timezone payload")
	}
	if _, err := tzclock.LoadZone(req.Timezone); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTimezone(ctx, id, req.Timezone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timezone")
	}

	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, SlotCachePattern(id)); err != nil {
			s.logger.Warn("slot cache invalidation failed", zap.String("teacher_id", id), zap.Error(err))
		}
	}

	s.logger.Info("teacher timezone updated", zap.String("teacher_id", id), zap.String("timezone", req.Timezone))
	return s.Get(ctx, id)
}
