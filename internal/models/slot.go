package models

import "time"

// Slot is an ephemeral one-hour bookable interval, aligned to the hour
// in the teacher's local timezone. Never persisted.
type Slot struct {
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	StartUTC  time.Time `json:"startUTC"`
	EndUTC    time.Time `json:"endUTC"`
}

// SlotListing is the student-facing availability response.
type SlotListing struct {
	Teacher PublicTeacher `json:"teacher"`
	Slots   []Slot        `json:"slots"`
}
