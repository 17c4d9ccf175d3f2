package scheduler

import (
	"context"
	"fmt"
)

// FindScheduleConflict returns the first reservation in the schedule whose
// interval overlaps the candidate, skipping excludeID when non-empty (used
// when re-checking an update against itself). Store order (start time
// ascending) decides which conflict is returned when several exist; callers
// must not depend on a finer tie-break. A nil result means no conflict.
func (e *Engine) FindScheduleConflict(ctx context.Context, candidate Interval, scheduleID, excludeID string) (*Reservation, error) {
	reservations, err := e.store.ReservationsInSchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load schedule %s: %w", scheduleID, err)
	}

	return firstOverlapping(reservations, candidate, excludeID), nil
}

// FindUserConflict applies the overlap predicate across every schedule the
// user owns. A user with no schedules yields no conflict.
func (e *Engine) FindUserConflict(ctx context.Context, candidate Interval, userID, excludeScheduleID string) (*Reservation, error) {
	reservations, err := e.store.ReservationsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load reservations for user %s: %w", userID, err)
	}

	for i := range reservations {
		if excludeScheduleID != "" && reservations[i].ScheduleID == excludeScheduleID {
			continue
		}
		if reservations[i].Interval.Overlaps(candidate) {
			conflict := reservations[i]
			return &conflict, nil
		}
	}

	return nil, nil
}

// FindFacilityConflicts returns every reservation at the exact building and
// room pair that overlaps the candidate. Facility double-booking needs the
// complete picture, so unlike the schedule and user detectors all conflicts
// are returned.
func (e *Engine) FindFacilityConflicts(ctx context.Context, candidate Interval, building, roomNumber, excludeID string) ([]Reservation, error) {
	reservations, err := e.store.ReservationsAtFacility(ctx, building, roomNumber)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load facility %s/%s: %w", building, roomNumber, err)
	}

	var conflicts []Reservation
	for i := range reservations {
		if excludeID != "" && reservations[i].ID == excludeID {
			continue
		}
		if reservations[i].Interval.Overlaps(candidate) {
			conflicts = append(conflicts, reservations[i])
		}
	}

	return conflicts, nil
}

func firstOverlapping(reservations []Reservation, candidate Interval, excludeID string) *Reservation {
	for i := range reservations {
		if excludeID != "" && reservations[i].ID == excludeID {
			continue
		}
		if reservations[i].Interval.Overlaps(candidate) {
			conflict := reservations[i]
			return &conflict
		}
	}
	return nil
}
