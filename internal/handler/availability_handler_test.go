package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classbook/classbook-api/internal/models"
	"github.com/classbook/classbook-api/internal/service"
)

type availabilityToggleRepoStub struct {
	existing *models.AvailabilityRule
	created  *models.AvailabilityRule
	deleted  string
}

func (s *availabilityToggleRepoStub) ListByTeacher(_ context.Context, _ string) ([]models.AvailabilityRule, error) {
	if s.existing == nil {
		return nil, nil
	}
	return []models.AvailabilityRule{*s.existing}, nil
}

func (s *availabilityToggleRepoStub) Find(_ context.Context, _ string, _ int, _ string) (*models.AvailabilityRule, error) {
	return s.existing, nil
}

func (s *availabilityToggleRepoStub) Create(_ context.Context, rule *models.AvailabilityRule) error {
	s.created = rule
	return nil
}

func (s *availabilityToggleRepoStub) Delete(_ context.Context, id string) error {
	s.deleted = id
	return nil
}

func newAvailabilityHandler(repo *availabilityToggleRepoStub) *AvailabilityHandler {
	return NewAvailabilityHandler(service.NewAvailabilityService(repo, nil, nil, nil))
}

func TestAvailabilityHandlerToggleAdds(t *testing.T) {
	repo := &availabilityToggleRepoStub{}
	handler := newAvailabilityHandler(repo)

	claims := &models.JWTClaims{TeacherID: handlerTeacherID}
	body := []byte(`{"dayOfWeek": 1, "startTime": "09:00", "endTime": "10:00"}`)
	w := performPost(t, handler.Toggle, "/availability", body, claims)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.ToggleResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, service.ToggleActionAdded, envelope.Data.Action)
	require.NotNil(t, repo.created)
	assert.Equal(t, handlerTeacherID, repo.created.TeacherID)
}

func TestAvailabilityHandlerToggleRemoves(t *testing.T) {
	repo := &availabilityToggleRepoStub{existing: &models.AvailabilityRule{
		ID:        "r-1",
		TeacherID: handlerTeacherID,
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "10:00",
	}}
	handler := newAvailabilityHandler(repo)

	claims := &models.JWTClaims{TeacherID: handlerTeacherID}
	body := []byte(`{"dayOfWeek": 1, "startTime": "09:00", "endTime": "10:00"}`)
	w := performPost(t, handler.Toggle, "/availability", body, claims)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.ToggleResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, service.ToggleActionRemoved, envelope.Data.Action)
	assert.Equal(t, "r-1", repo.deleted)
}

func TestAvailabilityHandlerToggleRequiresAuth(t *testing.T) {
	handler := newAvailabilityHandler(&availabilityToggleRepoStub{})

	body := []byte(`{"dayOfWeek": 1, "startTime": "09:00", "endTime": "10:00"}`)
	w := performPost(t, handler.Toggle, "/availability", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAvailabilityHandlerToggleRejectsBadDay(t *testing.T) {
	handler := newAvailabilityHandler(&availabilityToggleRepoStub{})

	claims := &models.JWTClaims{TeacherID: handlerTeacherID}
	body := []byte(`{"dayOfWeek": 9, "startTime": "09:00", "endTime": "10:00"}`)
	w := performPost(t, handler.Toggle, "/availability", body, claims)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
