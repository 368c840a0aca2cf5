package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classbook/classbook-api/internal/models"
	appErrors "github.com/classbook/classbook-api/pkg/errors"
)

type fakeTeacherRepo struct {
	teacher *models.Teacher
	findErr error

	updatedID string
	updatedTz string
}

func (f *fakeTeacherRepo) FindByID(_ context.Context, _ string) (*models.Teacher, error) {
	return f.teacher, f.findErr
}

func (f *fakeTeacherRepo) UpdateTimezone(_ context.Context, id, timezone string) error {
	f.updatedID = id
	f.updatedTz = timezone
	if f.teacher != nil {
		f.teacher.Timezone = timezone
	}
	return nil
}

func TestTeacherServiceUpdateTimezone(t *testing.T) {
	repo := &fakeTeacherRepo{teacher: &models.Teacher{ID: "t-1", Timezone: "UTC"}}
	svc := NewTeacherService(repo, nil, nil, nil)

	teacher, err := svc.UpdateTimezone(context.Background(), "t-1", UpdateTimezoneRequest{Timezone: "Asia/Shanghai"})
	require.NoError(t, err)
	assert.Equal(t, "t-1", repo.updatedID)
	assert.Equal(t, "Asia/Shanghai", teacher.Timezone)
}

func TestTeacherServiceUpdateTimezoneRejectsUnknownZone(t *testing.T) {
	repo := &fakeTeacherRepo{teacher: &models.Teacher{ID: "t-1", Timezone: "UTC"}}
	svc := NewTeacherService(repo, nil, nil, nil)

	_, err := svc.UpdateTimezone(context.Background(), "t-1", UpdateTimezoneRequest{Timezone: "Not/AZone"})
	requireAppError(t, err, appErrors.ErrInvalidTimezone.Code)
	assert.Empty(t, repo.updatedID)

	_, err = svc.UpdateTimezone(context.Background(), "t-1", UpdateTimezoneRequest{})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestTeacherServiceGetNotFound(t *testing.T) {
	svc := NewTeacherService(&fakeTeacherRepo{findErr: sql.ErrNoRows}, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}
