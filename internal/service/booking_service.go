package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classbook/classbook-api/internal/calendar"
	"github.com/classbook/classbook-api/internal/mailer"
	"github.com/classbook/classbook-api/internal/models"
	"github.com/classbook/classbook-api/internal/repository"
	appErrors "github.com/classbook/classbook-api/pkg/errors"
	"github.com/classbook/classbook-api/pkg/export"
	"github.com/classbook/classbook-api/pkg/jobs"
	"github.com/classbook/classbook-api/pkg/tzclock"
)

// Background job types dispatched after commit.
const (
	JobBookingCreated   = "booking.created"
	JobBookingCancelled = "booking.cancelled"
)

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Booking, error)
	CreateConfirmed(ctx context.Context, booking *models.Booking) error
	Cancel(ctx context.Context, id string) (*models.Booking, error)
	SetCalendarDetails(ctx context.Context, id string, meetingLink, eventID *string) error
}

type bookingTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type enqueuer interface {
	Enqueue(job jobs.Job) error
}

// SlotSelection is one selected hour slot in a booking submission.
type SlotSelection struct {
	TeacherID    string    `json:"teacherId" validate:"required,uuid"`
	StudentName  string    `json:"studentName" validate:"required,max=200"`
	SubjectName  string    `json:"subjectName" validate:"required,max=200"`
	Notes        string    `json:"notes" validate:"max=2000"`
	StartTime    time.Time `json:"startTime" validate:"required"`
	EndTime      time.Time `json:"endTime" validate:"required"`
	Date         string    `json:"date"`
	DisplayStart string    `json:"displayStart"`
	DisplayEnd   string    `json:"displayEnd"`
}

// CreateBookingRequest carries the student's slot selections.
type CreateBookingRequest struct {
	Bookings []SlotSelection `json:"bookings" validate:"required,min=1,dive"`
}

// BookingCreatedPayload identifies a committed booking awaiting side effects.
type BookingCreatedPayload struct {
	BookingID    string
	Date         string
	DisplayStart string
	DisplayEnd   string
}

// BookingCancelledPayload carries what the calendar cleanup needs.
type BookingCancelledPayload struct {
	TeacherID string
	EventID   string
}

// BookingService merges contiguous slot selections into bookings,
// validates conflicts and runs post-commit side effects.
type BookingService struct {
	bookings  bookingRepository
	teachers  bookingTeacherRepository
	queue     enqueuer
	calendar  calendar.Client
	mail      mailer.Sender
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs a BookingService. Queue, calendar, mail,
// cache and metrics may be nil; the related behaviour is skipped.
func NewBookingService(bookings bookingRepository, teachers bookingTeacherRepository, queue enqueuer, cal calendar.Client, mail mailer.Sender, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings:  bookings,
		teachers:  teachers,
		queue:     queue,
		calendar:  cal,
		mail:      mail,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Create validates the selection, merges it into one interval and
// persists a single confirmed booking. Calendar and email side effects
// are queued after the transaction commits.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.MergedBookingView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	selections := make([]SlotSelection, len(req.Bookings))
	copy(selections, req.Bookings)
	sort.Slice(selections, func(i, j int) bool {
		return selections[i].StartTime.Before(selections[j].StartTime)
	})

	if err := validateSelection(selections); err != nil {
		return nil, err
	}

	teacher, err := s.teachers.FindByID(ctx, selections[0].TeacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	first := selections[0]
	last := selections[len(selections)-1]
	booking := &models.Booking{
		ID:          uuid.NewString(),
		TeacherID:   teacher.ID,
		StudentName: first.StudentName,
		SubjectName: first.SubjectName,
		Notes:       first.Notes,
		StartTime:   first.StartTime.UTC(),
		EndTime:     last.EndTime.UTC(),
		Status:      models.BookingStatusConfirmed,
	}

	if err := s.bookings.CreateConfirmed(ctx, booking); err != nil {
		if err == repository.ErrOverlap {
			s.metrics.RecordBooking("conflict")
			return nil, appErrors.Clone(appErrors.ErrSlotConflict, "the selected time is no longer available")
		}
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	s.metrics.RecordBooking("confirmed")

	s.invalidateSlots(ctx, teacher.ID)

	view := &models.MergedBookingView{
		Booking:      *booking,
		Date:         first.Date,
		DisplayStart: first.DisplayStart,
		DisplayEnd:   last.DisplayEnd,
	}

	s.enqueue(jobs.Job{
		ID:   booking.ID,
		Type: JobBookingCreated,
		Payload: BookingCreatedPayload{
			BookingID:    booking.ID,
			Date:         first.Date,
			DisplayStart: first.DisplayStart,
			DisplayEnd:   last.DisplayEnd,
		},
	})

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("teacher_id", teacher.ID),
		zap.Time("start", booking.StartTime),
		zap.Time("end", booking.EndTime))
	return view, nil
}

// validateSelection enforces one teacher and one gap-free run over the
// sorted selections. Clients enforce the same rule optimistically; the
// server never trusts them.
func validateSelection(selections []SlotSelection) error {
	teacherID := selections[0].TeacherID
	for i := range selections {
		if selections[i].TeacherID != teacherID {
			return appErrors.Clone(appErrors.ErrValidation, "all selections must target the same teacher")
		}
		if !selections[i].EndTime.After(selections[i].StartTime) {
			return appErrors.Clone(appErrors.ErrValidation, "selection end must be after its start")
		}
	}
	for i := 1; i < len(selections); i++ {
		if !selections[i-1].EndTime.Equal(selections[i].StartTime) {
			return appErrors.Clone(appErrors.ErrValidation, "selected slots must be contiguous")
		}
	}
	return nil
}

// Cancel transitions a booking to cancelled and queues the external
// calendar cleanup.
func (s *BookingService) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookings.Cancel(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}
	s.metrics.RecordBooking("cancelled")

	s.invalidateSlots(ctx, booking.TeacherID)

	if booking.CalendarEventID != nil && *booking.CalendarEventID != "" {
		s.enqueue(jobs.Job{
			ID:   booking.ID,
			Type: JobBookingCancelled,
			Payload: BookingCancelledPayload{
				TeacherID: booking.TeacherID,
				EventID:   *booking.CalendarEventID,
			},
		})
	}

	s.logger.Info("booking cancelled", zap.String("booking_id", booking.ID), zap.String("teacher_id", booking.TeacherID))
	return booking, nil
}

// ListForTeacher returns the teacher's bookings ordered by start time.
func (s *BookingService) ListForTeacher(ctx context.Context, teacherID string) ([]models.Booking, error) {
	bookings, err := s.bookings.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return bookings, nil
}

// ExportResult is a rendered schedule document.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Export renders the teacher's booking schedule as CSV or PDF. Times
// are displayed on the teacher's own clock.
func (s *BookingService) Export(ctx context.Context, teacher *models.Teacher, format string) (*ExportResult, error) {
	bookings, err := s.ListForTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, err
	}

	loc, err := tzclock.LoadZone(teacher.Timezone)
	if err != nil {
		loc = time.UTC
	}

	headers := []string{"Date", "Start", "End", "Student", "Subject", "Status", "Meeting Link"}
	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		link := ""
		if b.MeetingLink != nil {
			link = *b.MeetingLink
		}
		rows = append(rows, map[string]string{
			"Date":         b.StartTime.In(loc).Format(tzclock.DateLayout),
			"Start":        tzclock.FormatClock(b.StartTime, loc),
			"End":          tzclock.FormatClock(b.EndTime, loc),
			"Student":      b.StudentName,
			"Subject":      b.SubjectName,
			"Status":       b.Status,
			"Meeting Link": link,
		})
	}
	data := export.Dataset{Headers: headers, Rows: rows}

	switch format {
	case "csv", "":
		content, err := export.NewCSVExporter().Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: "bookings.csv"}, nil
	case "pdf":
		content, err := export.NewPDFExporter().Render(data, fmt.Sprintf("Bookings — %s", teacher.FullName))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: "bookings.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// HandleJob runs queued side effects. Failures are returned to the
// queue, which logs them; the booking itself is already committed and
// never rolled back from here.
func (s *BookingService) HandleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobBookingCreated:
		payload, ok := job.Payload.(BookingCreatedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", job.Type)
		}
		return s.runCreatedSideEffects(ctx, payload)
	case JobBookingCancelled:
		payload, ok := job.Payload.(BookingCancelledPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", job.Type)
		}
		return s.runCancelledSideEffects(ctx, payload)
	default:
		return fmt.Errorf("unknown job type %s", job.Type)
	}
}

func (s *BookingService) runCreatedSideEffects(ctx context.Context, payload BookingCreatedPayload) error {
	booking, err := s.bookings.FindByID(ctx, payload.BookingID)
	if err != nil {
		return fmt.Errorf("load booking %s: %w", payload.BookingID, err)
	}
	teacher, err := s.teachers.FindByID(ctx, booking.TeacherID)
	if err != nil {
		return fmt.Errorf("load teacher %s: %w", booking.TeacherID, err)
	}

	meetingLink := ""
	if s.calendar != nil && teacher.GoogleAccessToken != nil {
		creds := teacherCredentials(teacher)
		result, err := s.calendar.CreateEvent(ctx, creds, calendar.EventInput{
			Summary:       fmt.Sprintf("%s — %s", booking.SubjectName, booking.StudentName),
			Description:   booking.Notes,
			AttendeeEmail: teacher.Email,
			Start:         booking.StartTime,
			End:           booking.EndTime,
		})
		if err != nil {
			s.logger.Warn("calendar event creation failed", zap.String("booking_id", booking.ID), zap.Error(err))
		} else {
			meetingLink = result.MeetingLink
			if err := s.bookings.SetCalendarDetails(ctx, booking.ID, &result.MeetingLink, &result.EventID); err != nil {
				s.logger.Warn("failed to store calendar details", zap.String("booking_id", booking.ID), zap.Error(err))
			}
		}
	}

	if s.mail != nil {
		notification := mailer.BookingNotification{
			TeacherEmail: teacher.Email,
			TeacherName:  teacher.FullName,
			StudentName:  booking.StudentName,
			SubjectName:  booking.SubjectName,
			Notes:        booking.Notes,
			Date:         payload.Date,
			DisplayStart: payload.DisplayStart,
			DisplayEnd:   payload.DisplayEnd,
			MeetingLink:  meetingLink,
		}
		if err := s.mail.SendBookingNotification(notification); err != nil {
			s.logger.Warn("booking notification failed", zap.String("booking_id", booking.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *BookingService) runCancelledSideEffects(ctx context.Context, payload BookingCancelledPayload) error {
	if s.calendar == nil || payload.EventID == "" {
		return nil
	}
	teacher, err := s.teachers.FindByID(ctx, payload.TeacherID)
	if err != nil {
		return fmt.Errorf("load teacher %s: %w", payload.TeacherID, err)
	}
	if teacher.GoogleAccessToken == nil {
		return nil
	}
	if err := s.calendar.DeleteEvent(ctx, teacherCredentials(teacher), payload.EventID); err != nil {
		s.logger.Warn("calendar event deletion failed", zap.String("event_id", payload.EventID), zap.Error(err))
	}
	return nil
}

func teacherCredentials(t *models.Teacher) calendar.Credentials {
	creds := calendar.Credentials{}
	if t.GoogleAccessToken != nil {
		creds.AccessToken = *t.GoogleAccessToken
	}
	if t.GoogleRefreshToken != nil {
		creds.RefreshToken = *t.GoogleRefreshToken
	}
	return creds
}

func (s *BookingService) invalidateSlots(ctx context.Context, teacherID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, SlotCachePattern(teacherID)); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}

func (s *BookingService) enqueue(job jobs.Job) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue side effects", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
	}
}
