package models

import (
	"fmt"
	"time"
)

// AvailabilityRule marks a recurring weekly hour slot as locked
// (unavailable). Absence of a rule means the hour is open for booking.
type AvailabilityRule struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek int       `db:"day_of_week" json:"dayOfWeek"`
	StartTime string    `db:"start_time" json:"startTime"`
	EndTime   string    `db:"end_time" json:"endTime"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LockKey identifies a rule within a teacher's weekly grid.
func (r AvailabilityRule) LockKey() string {
	return LockKey(r.DayOfWeek, r.StartTime)
}

// LockKey builds the canonical "dow-HH:MM" key for a locked hour.
func LockKey(dayOfWeek int, startTime string) string {
	return fmt.Sprintf("%d-%s", dayOfWeek, startTime)
}

// LockSet indexes locked weekly hours for constant-time lookups.
type LockSet map[string]struct{}

// NewLockSet builds a LockSet from rules.
func NewLockSet(rules []AvailabilityRule) LockSet {
	set := make(LockSet, len(rules))
	for _, rule := range rules {
		set[rule.LockKey()] = struct{}{}
	}
	return set
}

// Contains reports whether the weekly hour is locked.
func (s LockSet) Contains(dayOfWeek int, startTime string) bool {
	_, ok := s[LockKey(dayOfWeek, startTime)]
	return ok
}
