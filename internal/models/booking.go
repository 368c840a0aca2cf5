package models

import "time"

// Booking statuses. A booking only ever moves confirmed -> cancelled.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking is a persisted lesson reservation spanning one or more merged
// contiguous hour slots.
type Booking struct {
	ID              string    `db:"id" json:"id"`
	TeacherID       string    `db:"teacher_id" json:"teacherId"`
	StudentName     string    `db:"student_name" json:"studentName"`
	SubjectName     string    `db:"subject_name" json:"subjectName"`
	Notes           string    `db:"notes" json:"notes"`
	StartTime       time.Time `db:"start_time" json:"startTime"`
	EndTime         time.Time `db:"end_time" json:"endTime"`
	Status          string    `db:"status" json:"status"`
	MeetingLink     *string   `db:"meeting_link" json:"meetingLink,omitempty"`
	CalendarEventID *string   `db:"calendar_event_id" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether the booking's half-open interval intersects
// [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// MergedBookingView decorates a booking with the student-local display
// strings it was created from.
type MergedBookingView struct {
	Booking
	Date         string `json:"date"`
	DisplayStart string `json:"displayStart"`
	DisplayEnd   string `json:"displayEnd"`
}
