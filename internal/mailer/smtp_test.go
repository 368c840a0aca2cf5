package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationBody(t *testing.T) {
	body := notificationBody(BookingNotification{
		TeacherName:  "Jane Doe",
		StudentName:  "Alice",
		SubjectName:  "Algebra",
		Date:         "2026-02-16",
		DisplayStart: "09:00",
		DisplayEnd:   "11:00",
		MeetingLink:  "https://meet.example.com/abc",
		Notes:        "Chapter 4 please",
	})

	assert.Contains(t, body, "Hi Jane Doe")
	assert.Contains(t, body, "Alice booked a Algebra session")
	assert.Contains(t, body, "Time: 09:00 - 11:00")
	assert.Contains(t, body, "https://meet.example.com/abc")
	assert.Contains(t, body, "Chapter 4 please")
}

func TestNotificationBodyOmitsEmptySections(t *testing.T) {
	body := notificationBody(BookingNotification{
		TeacherName:  "Jane Doe",
		StudentName:  "Alice",
		SubjectName:  "Algebra",
		Date:         "2026-02-16",
		DisplayStart: "09:00",
		DisplayEnd:   "10:00",
	})

	assert.NotContains(t, body, "Meet:")
	assert.NotContains(t, body, "Notes from the student")
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := buildMessage("no-reply@classbook.local", "jane@example.com", "New booking", "hello")
	assert.Contains(t, msg, "From: no-reply@classbook.local\r\n")
	assert.Contains(t, msg, "To: jane@example.com\r\n")
	assert.Contains(t, msg, "Subject: New booking\r\n")
	assert.Contains(t, msg, "\r\n\r\nhello\r\n")
}
