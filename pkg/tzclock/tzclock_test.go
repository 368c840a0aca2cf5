package tzclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadZone(t *testing.T) {
	loc, err := LoadZone("America/Los_Angeles")
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", loc.String())

	loc, err = LoadZone("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadZone("Mars/Olympus_Mons")
	require.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-16")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.February, d.Month())
	assert.Equal(t, 16, d.Day())

	_, err = ParseDate("16/02/2026")
	require.Error(t, err)
}

func TestAtConvertsWallClockToUTC(t *testing.T) {
	la, err := LoadZone("America/Los_Angeles")
	require.NoError(t, err)

	date, err := ParseDate("2026-02-16")
	require.NoError(t, err)

	// PST is UTC-8 in February, so 06:00 local is 14:00 UTC.
	got := At(date, 6, 0, la)
	assert.Equal(t, time.Date(2026, 2, 16, 14, 0, 0, 0, time.UTC), got)
}

func TestAtHandlesDSTTransition(t *testing.T) {
	la, err := LoadZone("America/Los_Angeles")
	require.NoError(t, err)

	// 2026-03-08 is the US spring-forward date; PDT is UTC-7 afterwards.
	date, err := ParseDate("2026-03-08")
	require.NoError(t, err)

	got := At(date, 6, 0, la)
	assert.Equal(t, time.Date(2026, 3, 8, 13, 0, 0, 0, time.UTC), got)
}

func TestAtClockRoundTrip(t *testing.T) {
	shanghai, err := LoadZone("Asia/Shanghai")
	require.NoError(t, err)

	date, err := ParseDate("2026-02-16")
	require.NoError(t, err)

	instant, err := AtClock(date, "09:00", shanghai)
	require.NoError(t, err)
	assert.Equal(t, "09:00", FormatClock(instant, shanghai))

	_, err = AtClock(date, "9am", shanghai)
	require.Error(t, err)
}

func TestLocalDateCrossesMidnight(t *testing.T) {
	shanghai, err := LoadZone("Asia/Shanghai")
	require.NoError(t, err)

	// 22:00 UTC on the 15th is already the 16th in Shanghai (UTC+8).
	instant := time.Date(2026, 2, 15, 22, 0, 0, 0, time.UTC)
	got := LocalDate(instant, shanghai)
	assert.Equal(t, time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC), got)
}

func TestWeekdayUsesLocalCalendarDate(t *testing.T) {
	la, err := LoadZone("America/Los_Angeles")
	require.NoError(t, err)

	// 2026-02-16 is a Monday regardless of the observer's offset.
	date, err := ParseDate("2026-02-16")
	require.NoError(t, err)
	assert.Equal(t, 1, Weekday(date, la))

	shanghai, err := LoadZone("Asia/Shanghai")
	require.NoError(t, err)
	assert.Equal(t, 1, Weekday(date, shanghai))
}

func TestDayBounds(t *testing.T) {
	shanghai, err := LoadZone("Asia/Shanghai")
	require.NoError(t, err)

	date, err := ParseDate("2026-02-16")
	require.NoError(t, err)

	start, end := DayBounds(date, shanghai)
	assert.Equal(t, time.Date(2026, 2, 15, 16, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 2, 16, 15, 59, 0, 0, time.UTC), end)
}
