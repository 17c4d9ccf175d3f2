package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/testfixtures"
)

func newCalendarHarness(t *testing.T) (*application.CalendarService, *testfixtures.SQLiteHarness) {
	t.Helper()

	db := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	if err := db.Users.CreateUser(ctx, testfixtures.NewUser()); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if err := db.Schedules.CreateSchedule(ctx, testfixtures.NewSchedule()); err != nil {
		t.Fatalf("failed to create schedule: %v", err)
	}

	return application.NewCalendarService(db.Reservations, time.UTC, nil), db
}

func seedCalendarReservation(t *testing.T, db *testfixtures.SQLiteHarness, id string, start, end time.Time) {
	t.Helper()
	reservation := testfixtures.NewReservation(
		testfixtures.WithReservationID(id),
		testfixtures.WithReservationInterval(start, end),
	)
	if err := db.Reservations.CreateReservationChecked(context.Background(), reservation); err != nil {
		t.Fatalf("failed to seed reservation %s: %v", id, err)
	}
}

func TestCalendarServiceDailySchedule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testfixtures.ReferenceTime()
	service, db := newCalendarHarness(t)

	seedCalendarReservation(t, db, "afternoon", base.Add(6*time.Hour), base.Add(7*time.Hour))
	seedCalendarReservation(t, db, "morning", base.Add(time.Hour), base.Add(2*time.Hour))
	seedCalendarReservation(t, db, "tomorrow", base.AddDate(0, 0, 1), base.AddDate(0, 0, 1).Add(time.Hour))

	day, err := service.DailySchedule(ctx, "user-1", base)
	if err != nil {
		t.Fatalf("daily schedule failed: %v", err)
	}
	if len(day.Reservations) != 2 {
		t.Fatalf("expected 2 reservations on the day, got %d", len(day.Reservations))
	}
	if day.Reservations[0].ID != "morning" || day.Reservations[1].ID != "afternoon" {
		t.Fatalf("reservations are not sorted by start: %v", day.Reservations)
	}
	if day.WeekdayName() != "Monday" {
		t.Fatalf("expected Monday, got %s", day.WeekdayName())
	}
}

func TestCalendarServiceWeeklySchedule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testfixtures.ReferenceTime()
	service, db := newCalendarHarness(t)

	seedCalendarReservation(t, db, "monday", base.Add(time.Hour), base.Add(2*time.Hour))
	seedCalendarReservation(t, db, "wednesday", base.AddDate(0, 0, 2).Add(time.Hour), base.AddDate(0, 0, 2).Add(2*time.Hour))
	seedCalendarReservation(t, db, "next-week", base.AddDate(0, 0, 8), base.AddDate(0, 0, 8).Add(time.Hour))

	week, err := service.WeeklySchedule(ctx, "user-1", base)
	if err != nil {
		t.Fatalf("weekly schedule failed: %v", err)
	}
	if len(week.Days) != 7 {
		t.Fatalf("week view must cover 7 days, got %d", len(week.Days))
	}

	byName := make(map[string]application.DaySchedule, 7)
	for _, day := range week.Days {
		byName[day.WeekdayName()] = day
	}
	if len(byName) != 7 {
		t.Fatalf("expected 7 distinct weekday names, got %d", len(byName))
	}
	if got := byName["Monday"].Reservations; len(got) != 1 || got[0].ID != "monday" {
		t.Fatalf("unexpected Monday entries: %v", got)
	}
	if got := byName["Wednesday"].Reservations; len(got) != 1 || got[0].ID != "wednesday" {
		t.Fatalf("unexpected Wednesday entries: %v", got)
	}
	if got := byName["Sunday"].Reservations; len(got) != 0 {
		t.Fatalf("Sunday should be empty, got %v", got)
	}
}
