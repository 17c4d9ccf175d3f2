package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/testfixtures"
)

type schedulingHarness struct {
	*testfixtures.SQLiteHarness
	service *application.SchedulingService
	clock   *testfixtures.Clock
}

func newSchedulingHarness(t *testing.T) *schedulingHarness {
	t.Helper()

	db := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})

	store := application.NewEventStore(db.Reservations)
	engine := scheduler.NewEngine(store, scheduler.Options{}, clock.NowFunc())
	service := application.NewSchedulingService(engine, db.Reservations, time.Minute, clock.NowFunc(), nil)

	return &schedulingHarness{SQLiteHarness: db, service: service, clock: clock}
}

func (h *schedulingHarness) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if err := h.Users.CreateUser(ctx, testfixtures.NewUser()); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if err := h.Schedules.CreateSchedule(ctx, testfixtures.NewSchedule()); err != nil {
		t.Fatalf("failed to create schedule: %v", err)
	}
}

func (h *schedulingHarness) seedReservation(t *testing.T, opts ...testfixtures.ReservationOption) {
	t.Helper()
	if err := h.Reservations.CreateReservationChecked(context.Background(), testfixtures.NewReservation(opts...)); err != nil {
		t.Fatalf("failed to seed reservation: %v", err)
	}
}

func TestSchedulingServiceCheckAvailability(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testfixtures.ReferenceTime()

	t.Run("free interval is available", func(t *testing.T) {
		t.Parallel()
		h := newSchedulingHarness(t)
		h.seed(t)
		h.seedReservation(t)

		result, err := h.service.CheckAvailability(ctx, scheduler.Interval{
			Start: base.Add(3 * time.Hour),
			End:   base.Add(4 * time.Hour),
		}, "sched-1", "")
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if !result.Available || result.Conflict != nil {
			t.Fatalf("expected availability, got %+v", result)
		}
	})

	t.Run("overlapping interval names the conflict", func(t *testing.T) {
		t.Parallel()
		h := newSchedulingHarness(t)
		h.seed(t)
		h.seedReservation(t)

		result, err := h.service.CheckAvailability(ctx, scheduler.Interval{
			Start: base.Add(90 * time.Minute),
			End:   base.Add(150 * time.Minute),
		}, "sched-1", "")
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if result.Available || result.Conflict == nil {
			t.Fatalf("expected a conflict, got %+v", result)
		}
		if result.Conflict.ID != "res-1" {
			t.Fatalf("conflict names %q, want res-1", result.Conflict.ID)
		}
	})

	t.Run("rejects an inverted interval", func(t *testing.T) {
		t.Parallel()
		h := newSchedulingHarness(t)

		_, err := h.service.CheckAvailability(ctx, scheduler.Interval{
			Start: base.Add(2 * time.Hour),
			End:   base.Add(time.Hour),
		}, "sched-1", "")
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})
}

func TestSchedulingServiceFacilityAvailability(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testfixtures.ReferenceTime()

	h := newSchedulingHarness(t)
	h.seed(t)
	h.seedReservation(t, testfixtures.WithReservationFacility("Science Hall", "101"))

	conflicts, err := h.service.FacilityAvailability(ctx, scheduler.Interval{
		Start: base.Add(90 * time.Minute),
		End:   base.Add(150 * time.Minute),
	}, "Science Hall", "101", "")
	if err != nil {
		t.Fatalf("facility check failed: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != "res-1" {
		t.Fatalf("expected the seeded conflict, got %v", conflicts)
	}

	_, err = h.service.FacilityAvailability(ctx, scheduler.Interval{
		Start: base.Add(time.Hour),
		End:   base.Add(2 * time.Hour),
	}, "", "101", "")
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected a validation error for missing building, got %v", err)
	}
}

func TestSchedulingServiceSuggestAlternatives(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testfixtures.ReferenceTime()

	h := newSchedulingHarness(t)
	h.seed(t)
	h.seedReservation(t)

	suggestions, err := h.service.SuggestAlternatives(ctx, application.SuggestParams{
		ScheduleID: "sched-1",
		Reference: scheduler.Interval{
			Start: base.Add(time.Hour),
			End:   base.Add(2 * time.Hour),
		},
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if len(suggestions) == 0 || len(suggestions) > 5 {
		t.Fatalf("expected between 1 and 5 suggestions, got %d", len(suggestions))
	}
	for _, suggestion := range suggestions {
		if suggestion.Interval.Overlaps(scheduler.Interval{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}) {
			t.Errorf("suggestion %v overlaps the booked slot", suggestion.Interval)
		}
	}
}

func TestSchedulingServiceFindCommonSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requires at least two participants", func(t *testing.T) {
		t.Parallel()
		h := newSchedulingHarness(t)

		_, err := h.service.FindCommonSlot(ctx, application.CommonSlotParams{
			ParticipantIDs:  []string{"user-1"},
			DurationMinutes: 60,
		})
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["participant_ids"]; !ok {
			t.Fatalf("expected a participant_ids error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("requires a positive duration", func(t *testing.T) {
		t.Parallel()
		h := newSchedulingHarness(t)

		_, err := h.service.FindCommonSlot(ctx, application.CommonSlotParams{
			ParticipantIDs: []string{"user-1", "user-2"},
		})
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("finds a slot avoiding both users", func(t *testing.T) {
		t.Parallel()
		h := newSchedulingHarness(t)
		h.seed(t)
		h.seedReservation(t)

		suggestions, err := h.service.FindCommonSlot(ctx, application.CommonSlotParams{
			ParticipantIDs:  []string{"user-1", "user-2"},
			DurationMinutes: 60,
		})
		if err != nil {
			t.Fatalf("common slot search failed: %v", err)
		}
		if len(suggestions) == 0 {
			t.Fatal("expected at least one common slot")
		}
		booked := scheduler.Interval{
			Start: testfixtures.ReferenceTime().Add(time.Hour),
			End:   testfixtures.ReferenceTime().Add(2 * time.Hour),
		}
		for _, suggestion := range suggestions {
			if suggestion.Interval.Overlaps(booked) {
				t.Errorf("suggestion %v overlaps user-1's booking", suggestion.Interval)
			}
		}
	})
}

func TestSchedulingServiceResolveConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testfixtures.ReferenceTime()

	h := newSchedulingHarness(t)
	h.seed(t)
	h.seedReservation(t)

	other := testfixtures.NewSchedule(testfixtures.WithScheduleID("sched-2"))
	if err := h.Schedules.CreateSchedule(ctx, other); err != nil {
		t.Fatalf("failed to create schedule: %v", err)
	}
	h.seedReservation(t,
		testfixtures.WithReservationID("res-2"),
		testfixtures.WithReservationSchedule("sched-2"),
		testfixtures.WithReservationInterval(base.Add(90*time.Minute), base.Add(150*time.Minute)),
	)

	strategies, err := h.service.ResolveConflict(ctx, "res-1", "res-2")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(strategies) == 0 {
		t.Fatal("expected at least one strategy")
	}
	last := strategies[len(strategies)-1]
	if last.Action != scheduler.ActionAcceptOverlap {
		t.Fatalf("expected accept-overlap as the final strategy, got %v", last.Action)
	}

	if _, err := h.service.ResolveConflict(ctx, "res-1", "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSchedulingServiceConflictReport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testfixtures.ReferenceTime()

	h := newSchedulingHarness(t)
	h.seed(t)

	// The checked writes keep schedules overlap-free, so reports over this
	// store stay empty. The pair arithmetic itself is covered by the engine
	// tests; here we exercise the cache path end to end.
	h.seedReservation(t)

	pairs, err := h.service.ConflictReport(ctx, "user-1")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("expected an empty report, got %v", pairs)
	}

	// A second identical request is served from the cache.
	if _, err := h.service.ConflictReport(ctx, "user-1"); err != nil {
		t.Fatalf("cached report failed: %v", err)
	}
	h.service.InvalidateReports()

	h.seedReservation(t,
		testfixtures.WithReservationID("res-2"),
		testfixtures.WithReservationInterval(base.Add(3*time.Hour), base.Add(4*time.Hour)),
	)
	pairs, err = h.service.ConflictReport(ctx, "user-1")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("disjoint reservations should not pair, got %v", pairs)
	}
}

func TestSchedulingServiceValidateChain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := testfixtures.ReferenceTime()

	h := newSchedulingHarness(t)
	h.seed(t)
	h.seedReservation(t)
	h.seedReservation(t,
		testfixtures.WithReservationID("res-2"),
		testfixtures.WithReservationInterval(base.Add(2*time.Hour), base.Add(3*time.Hour)),
	)

	result, err := h.service.ValidateChain(ctx, "sched-1")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !result.Valid || result.Offender != nil {
		t.Fatalf("touching chain should be valid, got %+v", result)
	}
}
