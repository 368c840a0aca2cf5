package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classbook/classbook-api/internal/calendar"
	"github.com/classbook/classbook-api/internal/mailer"
	"github.com/classbook/classbook-api/internal/models"
	"github.com/classbook/classbook-api/internal/repository"
	appErrors "github.com/classbook/classbook-api/pkg/errors"
	"github.com/classbook/classbook-api/pkg/jobs"
)

type mockBookingRepo struct {
	created   *models.Booking
	createErr error

	found   *models.Booking
	findErr error

	cancelled *models.Booking
	cancelErr error

	listed  []models.Booking
	listErr error

	detailsID   string
	detailsLink *string
	detailsEvt  *string
}

func (m *mockBookingRepo) FindByID(_ context.Context, _ string) (*models.Booking, error) {
	return m.found, m.findErr
}

func (m *mockBookingRepo) ListByTeacher(_ context.Context, _ string) ([]models.Booking, error) {
	return m.listed, m.listErr
}

func (m *mockBookingRepo) CreateConfirmed(_ context.Context, booking *models.Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = booking
	return nil
}

func (m *mockBookingRepo) Cancel(_ context.Context, _ string) (*models.Booking, error) {
	return m.cancelled, m.cancelErr
}

func (m *mockBookingRepo) SetCalendarDetails(_ context.Context, id string, meetingLink, eventID *string) error {
	m.detailsID = id
	m.detailsLink = meetingLink
	m.detailsEvt = eventID
	return nil
}

type stubTeacherFinder struct {
	teacher *models.Teacher
	err     error
}

func (s *stubTeacherFinder) FindByID(_ context.Context, _ string) (*models.Teacher, error) {
	return s.teacher, s.err
}

type recordingQueue struct {
	jobs []jobs.Job
}

func (r *recordingQueue) Enqueue(job jobs.Job) error {
	r.jobs = append(r.jobs, job)
	return nil
}

type stubCalendar struct {
	result    *calendar.EventResult
	createErr error
	deleted   []string
}

func (s *stubCalendar) CreateEvent(_ context.Context, _ calendar.Credentials, _ calendar.EventInput) (*calendar.EventResult, error) {
	return s.result, s.createErr
}

func (s *stubCalendar) DeleteEvent(_ context.Context, _ calendar.Credentials, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	return nil
}

type recordingSender struct {
	sent []mailer.BookingNotification
	err  error
}

func (r *recordingSender) SendBookingNotification(n mailer.BookingNotification) error {
	r.sent = append(r.sent, n)
	return r.err
}

const bookingTeacherID = "22222222-2222-2222-2222-222222222222"

func selection(start, end time.Time, display ...string) SlotSelection {
	sel := SlotSelection{
		TeacherID:   bookingTeacherID,
		StudentName: "Grace Hopper",
		SubjectName: "Math",
		Notes:       "chapter 4",
		StartTime:   start,
		EndTime:     end,
		Date:        "2026-02-16",
	}
	if len(display) == 2 {
		sel.DisplayStart = display[0]
		sel.DisplayEnd = display[1]
	}
	return sel
}

func bookingTeacher() *models.Teacher {
	access := "access-token"
	refresh := "refresh-token"
	return &models.Teacher{
		ID:                 bookingTeacherID,
		Email:              "ada@classbook.dev",
		FullName:           "Ada Lovelace",
		Slug:               "ada-lovelace",
		Timezone:           "UTC",
		GoogleAccessToken:  &access,
		GoogleRefreshToken: &refresh,
	}
}

func TestBookingServiceCreateMergesContiguousRun(t *testing.T) {
	repo := &mockBookingRepo{}
	queue := &recordingQueue{}
	svc := NewBookingService(repo, &stubTeacherFinder{teacher: bookingTeacher()}, queue, nil, nil, nil, nil, nil, nil)

	base := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	req := CreateBookingRequest{Bookings: []SlotSelection{
		selection(base.Add(time.Hour), base.Add(2*time.Hour), "10:00", "11:00"),
		selection(base, base.Add(time.Hour), "09:00", "10:00"),
		selection(base.Add(2*time.Hour), base.Add(3*time.Hour), "11:00", "12:00"),
	}}

	view, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, repo.created)

	assert.Equal(t, base, repo.created.StartTime)
	assert.Equal(t, base.Add(3*time.Hour), repo.created.EndTime)
	assert.Equal(t, 3*time.Hour, repo.created.EndTime.Sub(repo.created.StartTime))
	assert.Equal(t, models.BookingStatusConfirmed, repo.created.Status)
	assert.Equal(t, "Grace Hopper", repo.created.StudentName)

	assert.Equal(t, "2026-02-16", view.Date)
	assert.Equal(t, "09:00", view.DisplayStart)
	assert.Equal(t, "12:00", view.DisplayEnd)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobBookingCreated, queue.jobs[0].Type)
	payload, ok := queue.jobs[0].Payload.(BookingCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, repo.created.ID, payload.BookingID)
}

func TestBookingServiceCreateRejectsGap(t *testing.T) {
	repo := &mockBookingRepo{}
	svc := NewBookingService(repo, &stubTeacherFinder{teacher: bookingTeacher()}, nil, nil, nil, nil, nil, nil, nil)

	base := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	req := CreateBookingRequest{Bookings: []SlotSelection{
		selection(base, base.Add(time.Hour)),
		selection(base.Add(2*time.Hour), base.Add(3*time.Hour)),
	}}

	_, err := svc.Create(context.Background(), req)
	requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Nil(t, repo.created)
}

func TestBookingServiceCreateRejectsEmptyAndMixedTeacher(t *testing.T) {
	repo := &mockBookingRepo{}
	svc := NewBookingService(repo, &stubTeacherFinder{teacher: bookingTeacher()}, nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateBookingRequest{})
	requireAppError(t, err, appErrors.ErrValidation.Code)

	base := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	other := selection(base.Add(time.Hour), base.Add(2*time.Hour))
	other.TeacherID = "33333333-3333-3333-3333-333333333333"
	_, err = svc.Create(context.Background(), CreateBookingRequest{Bookings: []SlotSelection{
		selection(base, base.Add(time.Hour)),
		other,
	}})
	requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Nil(t, repo.created)
}

func TestBookingServiceCreateConflict(t *testing.T) {
	repo := &mockBookingRepo{createErr: repository.ErrOverlap}
	svc := NewBookingService(repo, &stubTeacherFinder{teacher: bookingTeacher()}, nil, nil, nil, nil, nil, nil, nil)

	base := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), CreateBookingRequest{Bookings: []SlotSelection{
		selection(base, base.Add(time.Hour)),
	}})
	requireAppError(t, err, appErrors.ErrSlotConflict.Code)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
}

func TestBookingServiceCreateUnknownTeacher(t *testing.T) {
	svc := NewBookingService(&mockBookingRepo{}, &stubTeacherFinder{err: sql.ErrNoRows}, nil, nil, nil, nil, nil, nil, nil)

	base := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), CreateBookingRequest{Bookings: []SlotSelection{
		selection(base, base.Add(time.Hour)),
	}})
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestBookingServiceCancel(t *testing.T) {
	eventID := "evt-123"
	repo := &mockBookingRepo{cancelled: &models.Booking{
		ID:              "b-1",
		TeacherID:       bookingTeacherID,
		Status:          models.BookingStatusCancelled,
		CalendarEventID: &eventID,
	}}
	queue := &recordingQueue{}
	svc := NewBookingService(repo, &stubTeacherFinder{teacher: bookingTeacher()}, queue, nil, nil, nil, nil, nil, nil)

	booking, err := svc.Cancel(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobBookingCancelled, queue.jobs[0].Type)
	payload, ok := queue.jobs[0].Payload.(BookingCancelledPayload)
	require.True(t, ok)
	assert.Equal(t, eventID, payload.EventID)
}

func TestBookingServiceCancelNotFound(t *testing.T) {
	repo := &mockBookingRepo{cancelErr: sql.ErrNoRows}
	svc := NewBookingService(repo, &stubTeacherFinder{teacher: bookingTeacher()}, nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.Cancel(context.Background(), "missing")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestBookingServiceHandleJobCreatedSideEffects(t *testing.T) {
	booking := &models.Booking{
		ID:          "b-1",
		TeacherID:   bookingTeacherID,
		StudentName: "Grace Hopper",
		SubjectName: "Math",
		StartTime:   time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC),
		Status:      models.BookingStatusConfirmed,
	}
	repo := &mockBookingRepo{found: booking}
	cal := &stubCalendar{result: &calendar.EventResult{EventID: "evt-9", MeetingLink: "https://meet.example/abc"}}
	sender := &recordingSender{}
	svc := NewBookingService(repo, &stubTeacherFinder{teacher: bookingTeacher()}, nil, cal, sender, nil, nil, nil, nil)

	err := svc.HandleJob(context.Background(), jobs.Job{
		Type: JobBookingCreated,
		Payload: BookingCreatedPayload{
			BookingID:    "b-1",
			Date:         "2026-02-16",
			DisplayStart: "09:00",
			DisplayEnd:   "12:00",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "b-1", repo.detailsID)
	require.NotNil(t, repo.detailsLink)
	assert.Equal(t, "https://meet.example/abc", *repo.detailsLink)
	require.NotNil(t, repo.detailsEvt)
	assert.Equal(t, "evt-9", *repo.detailsEvt)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ada@classbook.dev", sender.sent[0].TeacherEmail)
	assert.Equal(t, "https://meet.example/abc", sender.sent[0].MeetingLink)
}

func TestBookingServiceHandleJobCalendarFailureStillSendsMail(t *testing.T) {
	booking := &models.Booking{ID: "b-1", TeacherID: bookingTeacherID, Status: models.BookingStatusConfirmed}
	repo := &mockBookingRepo{found: booking}
	cal := &stubCalendar{createErr: assert.AnError}
	sender := &recordingSender{}
	svc := NewBookingService(repo, &stubTeacherFinder{teacher: bookingTeacher()}, nil, cal, sender, nil, nil, nil, nil)

	err := svc.HandleJob(context.Background(), jobs.Job{
		Type:    JobBookingCreated,
		Payload: BookingCreatedPayload{BookingID: "b-1"},
	})
	require.NoError(t, err)
	assert.Empty(t, repo.detailsID)
	require.Len(t, sender.sent, 1)
	assert.Empty(t, sender.sent[0].MeetingLink)
}

func TestBookingServiceHandleJobCancelledDeletesEvent(t *testing.T) {
	cal := &stubCalendar{}
	svc := NewBookingService(&mockBookingRepo{}, &stubTeacherFinder{teacher: bookingTeacher()}, nil, cal, nil, nil, nil, nil, nil)

	err := svc.HandleJob(context.Background(), jobs.Job{
		Type:    JobBookingCancelled,
		Payload: BookingCancelledPayload{TeacherID: bookingTeacherID, EventID: "evt-9"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"evt-9"}, cal.deleted)
}

func TestBookingServiceExportCSV(t *testing.T) {
	link := "https://meet.example/abc"
	repo := &mockBookingRepo{listed: []models.Booking{
		{
			StudentName: "Grace Hopper",
			SubjectName: "Math",
			StartTime:   time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC),
			EndTime:     time.Date(2026, 2, 16, 11, 0, 0, 0, time.UTC),
			Status:      models.BookingStatusConfirmed,
			MeetingLink: &link,
		},
	}}
	svc := NewBookingService(repo, &stubTeacherFinder{teacher: bookingTeacher()}, nil, nil, nil, nil, nil, nil, nil)

	result, err := svc.Export(context.Background(), bookingTeacher(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "bookings.csv", result.Filename)

	content := string(result.Content)
	assert.True(t, strings.HasPrefix(content, "Date,Start,End,Student,Subject,Status,Meeting Link"))
	assert.Contains(t, content, "2026-02-16,09:00,11:00,Grace Hopper,Math,confirmed,https://meet.example/abc")
}

func TestBookingServiceExportUnknownFormat(t *testing.T) {
	svc := NewBookingService(&mockBookingRepo{}, &stubTeacherFinder{teacher: bookingTeacher()}, nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.Export(context.Background(), bookingTeacher(), "xlsx")
	requireAppError(t, err, appErrors.ErrValidation.Code)
}
