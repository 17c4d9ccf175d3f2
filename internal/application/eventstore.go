package application

import (
	"context"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// eventStoreAdapter exposes the reservation repository's snapshot queries as
// the engine's EventStore, translating persistence records into engine
// values.
type eventStoreAdapter struct {
	reservations persistence.ReservationRepository
}

// NewEventStore adapts a reservation repository for the conflict engine.
func NewEventStore(reservations persistence.ReservationRepository) scheduler.EventStore {
	return &eventStoreAdapter{reservations: reservations}
}

func (a *eventStoreAdapter) ReservationsInSchedule(ctx context.Context, scheduleID string) ([]scheduler.Reservation, error) {
	records, err := a.reservations.ReservationsInSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	return toEngineReservations(records), nil
}

func (a *eventStoreAdapter) ReservationsForUser(ctx context.Context, userID string) ([]scheduler.Reservation, error) {
	records, err := a.reservations.ReservationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toEngineReservations(records), nil
}

func (a *eventStoreAdapter) ReservationsAtFacility(ctx context.Context, building, roomNumber string) ([]scheduler.Reservation, error) {
	records, err := a.reservations.ReservationsAtFacility(ctx, building, roomNumber)
	if err != nil {
		return nil, err
	}
	return toEngineReservations(records), nil
}

func toEngineReservation(record persistence.Reservation) scheduler.Reservation {
	reservation := scheduler.Reservation{
		ID:               record.ID,
		ScheduleID:       record.ScheduleID,
		OrganizerID:      record.OrganizerID,
		Title:            record.Title,
		Interval:         scheduler.Interval{Start: record.Start, End: record.End},
		RequiresApproval: record.RequiresApproval,
	}
	if record.Building != nil && record.RoomNumber != nil {
		reservation.Facility = &scheduler.Facility{
			Building:   *record.Building,
			RoomNumber: *record.RoomNumber,
		}
	}
	return reservation
}

func toEngineReservations(records []persistence.Reservation) []scheduler.Reservation {
	if len(records) == 0 {
		return nil
	}
	out := make([]scheduler.Reservation, 0, len(records))
	for _, record := range records {
		out = append(out, toEngineReservation(record))
	}
	return out
}
