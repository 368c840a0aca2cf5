// Package tzclock provides timezone-aware clock arithmetic for slot
// scheduling. All instants are stored and compared in UTC; zones matter
// only when interpreting wall-clock input or formatting output.
package tzclock

import (
	"fmt"
	"time"

	appErrors "github.com/classbook/classbook-api/pkg/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ClockLayout is the wire format for wall-clock times.
const ClockLayout = "15:04"

// LoadZone resolves an IANA zone name. An empty name means UTC.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, fmt.Sprintf("unknown timezone %q", name))
	}
	return loc, nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return d, nil
}

// At returns the UTC instant of wall-clock hh:mm on the given calendar
// date interpreted in loc. The date argument carries only year/month/day.
func At(date time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc).UTC()
}

// AtClock is At with an "HH:MM" wall-clock string.
func AtClock(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid time %q, expected HH:MM", clock))
	}
	return At(date, t.Hour(), t.Minute(), loc), nil
}

// FormatClock renders an instant as "HH:MM" wall-clock time in loc.
func FormatClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(ClockLayout)
}

// LocalDate returns the calendar date of instant t as seen in loc,
// normalized to midnight UTC for date-only arithmetic.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of week (Sunday=0) of a calendar date in loc.
// The day of week must come from the local calendar date, not the UTC
// one; near-midnight offsets would otherwise shift it by a day.
func Weekday(date time.Time, loc *time.Location) int {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, loc)
	return int(noon.In(loc).Weekday())
}

// DayBounds returns the UTC instants of 00:00 and 23:59 of the given
// calendar date in loc.
func DayBounds(date time.Time, loc *time.Location) (start, end time.Time) {
	return At(date, 0, 0, loc), At(date, 23, 59, loc)
}
