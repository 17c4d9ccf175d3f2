package testfixtures

import (
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// UserOption mutates a user fixture.
type UserOption func(*persistence.User)

// NewUser builds a persistence user with sensible defaults.
func NewUser(opts ...UserOption) persistence.User {
	base := ReferenceTime()
	user := persistence.User{
		ID:           "user-1",
		Email:        "alice@example.edu",
		DisplayName:  "Alice",
		PasswordHash: "hash",
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the fixture's ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUserEmail overrides the fixture's email.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithUserAdmin marks the fixture as an administrator.
func WithUserAdmin() UserOption {
	return func(u *persistence.User) { u.IsAdmin = true }
}

// WithUserPasswordHash overrides the stored credential hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// ScheduleOption mutates a schedule fixture.
type ScheduleOption func(*persistence.Schedule)

// NewSchedule builds a persistence schedule with sensible defaults.
func NewSchedule(opts ...ScheduleOption) persistence.Schedule {
	base := ReferenceTime()
	schedule := persistence.Schedule{
		ID:          "sched-1",
		OwnerUserID: "user-1",
		Title:       "Work",
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	for _, opt := range opts {
		opt(&schedule)
	}
	return schedule
}

// WithScheduleID overrides the fixture's ID.
func WithScheduleID(id string) ScheduleOption {
	return func(s *persistence.Schedule) { s.ID = id }
}

// WithScheduleOwner overrides the fixture's owner.
func WithScheduleOwner(userID string) ScheduleOption {
	return func(s *persistence.Schedule) { s.OwnerUserID = userID }
}

// ReservationOption mutates a reservation fixture.
type ReservationOption func(*persistence.Reservation)

// NewReservation builds a persistence reservation with sensible defaults:
// one hour starting at ReferenceTime plus an hour, in schedule sched-1.
func NewReservation(opts ...ReservationOption) persistence.Reservation {
	base := ReferenceTime()
	reservation := persistence.Reservation{
		ID:          "res-1",
		ScheduleID:  "sched-1",
		OrganizerID: "user-1",
		Title:       "Staff meeting",
		Start:       base.Add(time.Hour),
		End:         base.Add(2 * time.Hour),
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	for _, opt := range opts {
		opt(&reservation)
	}
	return reservation
}

// WithReservationID overrides the fixture's ID.
func WithReservationID(id string) ReservationOption {
	return func(r *persistence.Reservation) { r.ID = id }
}

// WithReservationSchedule overrides the fixture's schedule.
func WithReservationSchedule(scheduleID string) ReservationOption {
	return func(r *persistence.Reservation) { r.ScheduleID = scheduleID }
}

// WithReservationOrganizer overrides the fixture's organizer.
func WithReservationOrganizer(userID string) ReservationOption {
	return func(r *persistence.Reservation) { r.OrganizerID = userID }
}

// WithReservationInterval overrides the fixture's time range.
func WithReservationInterval(start, end time.Time) ReservationOption {
	return func(r *persistence.Reservation) {
		r.Start = start
		r.End = end
	}
}

// WithReservationFacility assigns the fixture to a building and room.
func WithReservationFacility(building, roomNumber string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.Building = &building
		r.RoomNumber = &roomNumber
	}
}

// WithReservationApproval marks the fixture as requiring approval.
func WithReservationApproval() ReservationOption {
	return func(r *persistence.Reservation) { r.RequiresApproval = true }
}
