package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classbook/classbook-api/internal/models"
)

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "teacher_id", "student_name", "subject_name", "notes", "start_time", "end_time", "status", "meeting_link", "calendar_event_id", "created_at", "updated_at"})
}

func TestBookingRepositoryConfirmedOverlapping(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	rows := bookingRows().
		AddRow("b1", "t1", "Alice", "Math", "", start.Add(9*time.Hour), start.Add(10*time.Hour), models.BookingStatusConfirmed, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, teacher_id, student_name, subject_name, notes, start_time, end_time, status, meeting_link, calendar_event_id, created_at, updated_at FROM bookings").
		WithArgs("t1", models.BookingStatusConfirmed, end, start).
		WillReturnRows(rows)

	bookings, err := repo.ConfirmedOverlapping(context.Background(), "t1", start, end)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateConfirmed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE id = $1 FOR UPDATE")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs("t1", models.BookingStatusConfirmed, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking := &models.Booking{
		TeacherID:   "t1",
		StudentName: "Alice",
		SubjectName: "Math",
		StartTime:   time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 2, 16, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateConfirmed(context.Background(), booking))
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateConfirmedConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE id = $1 FOR UPDATE")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs("t1", models.BookingStatusConfirmed, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	booking := &models.Booking{
		TeacherID: "t1",
		StartTime: time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC),
	}
	err := repo.CreateConfirmed(context.Background(), booking)
	require.ErrorIs(t, err, ErrOverlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCancel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := bookingRows().
		AddRow("b1", "t1", "Alice", "Math", "", time.Now(), time.Now().Add(time.Hour), models.BookingStatusCancelled, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("UPDATE bookings SET status").
		WithArgs("b1", models.BookingStatusCancelled, sqlmock.AnyArg()).
		WillReturnRows(rows)

	booking, err := repo.Cancel(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositorySetCalendarDetails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	link := "https://meet.example.com/abc"
	eventID := "evt-1"
	mock.ExpectExec("UPDATE bookings SET meeting_link").
		WithArgs("b1", &link, &eventID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.SetCalendarDetails(context.Background(), "b1", &link, &eventID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
