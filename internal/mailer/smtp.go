// Package mailer sends transactional booking notifications. Delivery is
// fire-and-forget; callers log failures and move on.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// BookingNotification summarizes a merged booking for the teacher.
type BookingNotification struct {
	TeacherEmail string
	TeacherName  string
	StudentName  string
	SubjectName  string
	Notes        string
	Date         string
	DisplayStart string
	DisplayEnd   string
	MeetingLink  string
}

// Sender delivers booking notifications.
type Sender interface {
	SendBookingNotification(n BookingNotification) error
}

// SMTPSender sends mail via plain SMTP (Mailpit-compatible, no auth).
type SMTPSender struct {
	addr string
	from string
}

// NewSMTPSender builds an SMTP sender.
func NewSMTPSender(host string, port int, from string) *SMTPSender {
	if from == "" {
		from = "no-reply@classbook.local"
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", strings.TrimSpace(host), port),
		from: from,
	}
}

// SendBookingNotification emails the teacher about a new booking.
func (s *SMTPSender) SendBookingNotification(n BookingNotification) error {
	subject := fmt.Sprintf("New booking from %s — %s", n.StudentName, n.SubjectName)
	msg := buildMessage(s.from, n.TeacherEmail, subject, notificationBody(n))
	return smtp.SendMail(s.addr, nil, s.from, []string{n.TeacherEmail}, []byte(msg))
}

func notificationBody(n BookingNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", n.TeacherName)
	fmt.Fprintf(&b, "%s booked a %s session with you.\n\n", n.StudentName, n.SubjectName)
	fmt.Fprintf(&b, "Date: %s\n", n.Date)
	fmt.Fprintf(&b, "Time: %s - %s\n", n.DisplayStart, n.DisplayEnd)
	if n.MeetingLink != "" {
		fmt.Fprintf(&b, "Meet: %s\n", n.MeetingLink)
	}
	if n.Notes != "" {
		fmt.Fprintf(&b, "\nNotes from the student:\n%s\n", n.Notes)
	}
	return b.String()
}

func buildMessage(from, to, subject, body string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		body,
	)
}
