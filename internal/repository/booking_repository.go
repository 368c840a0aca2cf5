package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/classbook/classbook-api/internal/models"
)

// ErrOverlap signals that a requested range collides with an existing
// confirmed booking for the same teacher.
var ErrOverlap = errors.New("booking overlaps an existing confirmed booking")

// BookingRepository manages persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, teacher_id, student_name, subject_name, notes, start_time, end_time, status, meeting_link, calendar_event_id, created_at, updated_at`

// FindByID fetches a booking by ID.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByTeacher returns all bookings for a teacher ordered by start time.
func (r *BookingRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE teacher_id = $1 ORDER BY start_time ASC`, bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, teacherID); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// ConfirmedOverlapping returns confirmed bookings whose half-open
// interval intersects [start, end).
func (r *BookingRepository) ConfirmedOverlapping(ctx context.Context, teacherID string, start, end time.Time) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings
		WHERE teacher_id = $1 AND status = $2 AND start_time < $3 AND end_time > $4
		ORDER BY start_time ASC`, bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, teacherID, models.BookingStatusConfirmed, end, start); err != nil {
		return nil, fmt.Errorf("list overlapping bookings: %w", err)
	}
	return bookings, nil
}

// CreateConfirmed inserts a confirmed booking after re-checking for
// overlap inside a transaction. The teacher row is locked FOR UPDATE so
// concurrent check-then-insert sequences for the same teacher serialize;
// the schema-level exclusion constraint backstops anything that slips
// through. Returns ErrOverlap on conflict.
func (r *BookingRepository) CreateConfirmed(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	booking.Status = models.BookingStatusConfirmed

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var teacherExists int
	if err = tx.GetContext(ctx, &teacherExists, `SELECT 1 FROM teachers WHERE id = $1 FOR UPDATE`, booking.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		err = fmt.Errorf("lock teacher row: %w", err)
		return err
	}

	var conflicting int
	err = tx.GetContext(ctx, &conflicting, `SELECT 1 FROM bookings
		WHERE teacher_id = $1 AND status = $2 AND start_time < $3 AND end_time > $4 LIMIT 1`,
		booking.TeacherID, models.BookingStatusConfirmed, booking.EndTime, booking.StartTime)
	if err == nil {
		err = ErrOverlap
		return err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check booking overlap: %w", err)
	}

	const insert = `INSERT INTO bookings (id, teacher_id, student_name, subject_name, notes, start_time, end_time, status, meeting_link, calendar_event_id, created_at, updated_at)
		VALUES (:id, :teacher_id, :student_name, :subject_name, :notes, :start_time, :end_time, :status, :meeting_link, :calendar_event_id, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insert, booking); err != nil {
		if isExclusionViolation(err) {
			err = ErrOverlap
		} else {
			err = fmt.Errorf("insert booking: %w", err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}
	return nil
}

// Cancel transitions a booking to cancelled and returns the updated row.
func (r *BookingRepository) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf(`UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1 RETURNING %s`, bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id, models.BookingStatusCancelled, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &booking, nil
}

// SetCalendarDetails stores the meeting link and external event id
// returned by the calendar provider after the booking was committed.
func (r *BookingRepository) SetCalendarDetails(ctx context.Context, id string, meetingLink, eventID *string) error {
	const query = `UPDATE bookings SET meeting_link = $2, calendar_event_id = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, meetingLink, eventID, time.Now().UTC()); err != nil {
		return fmt.Errorf("set booking calendar details: %w", err)
	}
	return nil
}

// isExclusionViolation matches the Postgres exclusion constraint that
// forbids overlapping confirmed bookings per teacher.
func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23P01"
}
