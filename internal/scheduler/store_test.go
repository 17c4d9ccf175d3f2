package scheduler

import (
	"context"
	"sort"
	"time"
)

// fakeStore is an in-memory event store for engine tests. Reservations are
// returned ordered by start time ascending, matching the SQLite
// implementation.
type fakeStore struct {
	reservations []Reservation
	owners       map[string]string // scheduleID -> userID
	err          error
}

func newFakeStore() *fakeStore {
	return &fakeStore{owners: make(map[string]string)}
}

func (s *fakeStore) addSchedule(scheduleID, ownerID string) {
	s.owners[scheduleID] = ownerID
}

func (s *fakeStore) add(reservation Reservation) {
	s.reservations = append(s.reservations, reservation)
}

func (s *fakeStore) ReservationsInSchedule(_ context.Context, scheduleID string) ([]Reservation, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Reservation
	for _, r := range s.reservations {
		if r.ScheduleID == scheduleID {
			out = append(out, r)
		}
	}
	return sortedByStart(out), nil
}

func (s *fakeStore) ReservationsForUser(_ context.Context, userID string) ([]Reservation, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Reservation
	for _, r := range s.reservations {
		if s.owners[r.ScheduleID] == userID {
			out = append(out, r)
		}
	}
	return sortedByStart(out), nil
}

func (s *fakeStore) ReservationsAtFacility(_ context.Context, building, roomNumber string) ([]Reservation, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Reservation
	for _, r := range s.reservations {
		if r.Facility != nil && r.Facility.Building == building && r.Facility.RoomNumber == roomNumber {
			out = append(out, r)
		}
	}
	return sortedByStart(out), nil
}

func sortedByStart(reservations []Reservation) []Reservation {
	sort.Slice(reservations, func(i, j int) bool {
		if reservations[i].Interval.Start.Equal(reservations[j].Interval.Start) {
			return reservations[i].ID < reservations[j].ID
		}
		return reservations[i].Interval.Start.Before(reservations[j].Interval.Start)
	})
	return reservations
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func span(day time.Time, startHour, startMinute, endHour, endMinute int) Interval {
	return Interval{Start: at(day, startHour, startMinute), End: at(day, endHour, endMinute)}
}
