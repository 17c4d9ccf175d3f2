package application

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// DaySchedule is all of a user's reservations falling on one calendar day,
// sorted by start time.
type DaySchedule struct {
	Date         time.Time
	Reservations []persistence.Reservation
}

// WeekSchedule covers seven consecutive days starting at WeekStart. Every
// day is present, including empty ones, keyed by its weekday name.
type WeekSchedule struct {
	WeekStart time.Time
	Days      []DaySchedule
}

// WeekdayName returns the label for a day entry, e.g. "Monday".
func (d DaySchedule) WeekdayName() string {
	return d.Date.Weekday().String()
}

// CalendarService aggregates a user's reservations into day and week views.
type CalendarService struct {
	reservations persistence.ReservationRepository
	location     *time.Location
	logger       *slog.Logger
}

// NewCalendarService wires the calendar aggregation service. Day boundaries
// are computed in the given location, defaulting to UTC.
func NewCalendarService(reservations persistence.ReservationRepository, location *time.Location, logger *slog.Logger) *CalendarService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarService{
		reservations: reservations,
		location:     location,
		logger:       logger,
	}
}

// DailySchedule returns the user's reservations starting on the given day,
// sorted by start time.
func (s *CalendarService) DailySchedule(ctx context.Context, userID string, date time.Time) (DaySchedule, error) {
	dayStart := s.startOfDay(date)
	dayEnd := dayStart.AddDate(0, 0, 1)

	all, err := s.reservations.ReservationsForUser(ctx, userID)
	if err != nil {
		return DaySchedule{}, err
	}

	day := DaySchedule{Date: dayStart}
	for _, reservation := range all {
		if !reservation.Start.Before(dayStart) && reservation.Start.Before(dayEnd) {
			day.Reservations = append(day.Reservations, reservation)
		}
	}
	sort.Slice(day.Reservations, func(i, j int) bool {
		return day.Reservations[i].Start.Before(day.Reservations[j].Start)
	})
	return day, nil
}

// WeeklySchedule returns seven day views starting at the given day. Days are
// stepped with AddDate so month and DST boundaries stay correct.
func (s *CalendarService) WeeklySchedule(ctx context.Context, userID string, weekStart time.Time) (WeekSchedule, error) {
	start := s.startOfDay(weekStart)
	end := start.AddDate(0, 0, 7)

	all, err := s.reservations.ReservationsForUser(ctx, userID)
	if err != nil {
		return WeekSchedule{}, err
	}

	week := WeekSchedule{
		WeekStart: start,
		Days:      make([]DaySchedule, 0, 7),
	}
	for offset := 0; offset < 7; offset++ {
		week.Days = append(week.Days, DaySchedule{Date: start.AddDate(0, 0, offset)})
	}

	for _, reservation := range all {
		if reservation.Start.Before(start) || !reservation.Start.Before(end) {
			continue
		}
		localStart := reservation.Start.In(s.location)
		dayStart := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, s.location)
		for i := range week.Days {
			if week.Days[i].Date.Equal(dayStart) {
				week.Days[i].Reservations = append(week.Days[i].Reservations, reservation)
				break
			}
		}
	}

	for i := range week.Days {
		day := week.Days[i]
		sort.Slice(day.Reservations, func(a, b int) bool {
			return day.Reservations[a].Start.Before(day.Reservations[b].Start)
		})
	}

	return week, nil
}

func (s *CalendarService) startOfDay(t time.Time) time.Time {
	local := t.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
}
