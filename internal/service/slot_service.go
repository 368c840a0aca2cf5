package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/classbook/classbook-api/internal/models"
	appErrors "github.com/classbook/classbook-api/pkg/errors"
	"github.com/classbook/classbook-api/pkg/tzclock"
)

// Bookable hours on the teacher's local clock. Each slot is one hour.
const (
	firstBookableHour = 6
	lastBookableHour  = 23
)

type slotTeacherRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.Teacher, error)
}

type slotAvailabilityRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error)
}

type slotBookingRepository interface {
	ConfirmedOverlapping(ctx context.Context, teacherID string, start, end time.Time) ([]models.Booking, error)
}

// SlotService generates bookable slot listings for a teacher and day.
type SlotService struct {
	teachers     slotTeacherRepository
	availability slotAvailabilityRepository
	bookings     slotBookingRepository
	cache        *CacheService
	logger       *zap.Logger
}

// NewSlotService constructs a SlotService.
func NewSlotService(teachers slotTeacherRepository, availability slotAvailabilityRepository, bookings slotBookingRepository, cache *CacheService, logger *zap.Logger) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{teachers: teachers, availability: availability, bookings: bookings, cache: cache, logger: logger}
}

func slotCacheKey(teacherID, date, tz string) string {
	return fmt.Sprintf("slots:%s:%s:%s", teacherID, date, tz)
}

// SlotCachePattern matches every cached listing for a teacher.
func SlotCachePattern(teacherID string) string {
	return fmt.Sprintf("slots:%s:*", teacherID)
}

// List returns the bookable slots for the teacher on the student's local date,
// displayed on the student's clock.
func (s *SlotService) List(ctx context.Context, teacherSlug, date, studentTz string) (*models.SlotListing, error) {
	if teacherSlug == "" || date == "" || studentTz == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher, date and tz are required")
	}

	teacher, err := s.teachers.FindBySlug(ctx, teacherSlug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	key := slotCacheKey(teacher.ID, date, studentTz)
	if s.cache.Enabled() {
		var cached models.SlotListing
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	studentLoc, err := tzclock.LoadZone(studentTz)
	if err != nil {
		return nil, err
	}
	teacherLoc, err := tzclock.LoadZone(teacher.Timezone)
	if err != nil {
		return nil, err
	}
	day, err := tzclock.ParseDate(date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	rules, err := s.availability.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability rules")
	}
	locked := models.NewLockSet(rules)

	dayStart, dayEnd := tzclock.DayBounds(day, studentLoc)

	booked, err := s.bookings.ConfirmedOverlapping(ctx, teacher.ID, dayStart, dayEnd.Add(time.Hour))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	slots := generateSlots(teacherLoc, studentLoc, dayStart, dayEnd, locked, booked)

	listing := &models.SlotListing{Teacher: teacher.Public(), Slots: slots}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, listing, 0); err != nil {
			s.logger.Warn("slot listing cache write failed", zap.String("teacher_id", teacher.ID), zap.Error(err))
		}
	}
	return listing, nil
}

// generateSlots walks the teacher-local dates that can touch the student's day.
// A day on the student's clock can span up to three teacher-local calendar
// dates, so the day before and after are examined too.
func generateSlots(teacherLoc, studentLoc *time.Location, dayStart, dayEnd time.Time, locked models.LockSet, booked []models.Booking) []models.Slot {
	seen := make(map[time.Time]struct{})
	slots := make([]models.Slot, 0, lastBookableHour-firstBookableHour+1)

	for offset := -1; offset <= 1; offset++ {
		teacherDate := tzclock.LocalDate(dayStart.AddDate(0, 0, offset), teacherLoc)
		dow := tzclock.Weekday(teacherDate, teacherLoc)

		for hour := firstBookableHour; hour <= lastBookableHour; hour++ {
			if locked.Contains(dow, fmt.Sprintf("%02d:00", hour)) {
				continue
			}

			start := tzclock.At(teacherDate, hour, 0, teacherLoc)
			end := tzclock.At(teacherDate, hour+1, 0, teacherLoc)

			if start.Before(dayStart) || start.After(dayEnd) {
				continue
			}
			if _, dup := seen[start]; dup {
				continue
			}
			if overlapsAny(booked, start, end) {
				continue
			}

			seen[start] = struct{}{}
			slots = append(slots, models.Slot{
				StartTime: tzclock.FormatClock(start, studentLoc),
				EndTime:   tzclock.FormatClock(end, studentLoc),
				StartUTC:  start,
				EndUTC:    end,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].StartUTC.Before(slots[j].StartUTC)
	})
	return slots
}

func overlapsAny(bookings []models.Booking, start, end time.Time) bool {
	for i := range bookings {
		if bookings[i].Overlaps(start, end) {
			return true
		}
	}
	return false
}
