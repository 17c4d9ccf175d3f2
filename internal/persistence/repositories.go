package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ScheduleRepository stores the named reservation collections.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedulesForUser(ctx context.Context, ownerUserID string) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation list queries.
type ReservationFilter struct {
	ScheduleID  string
	OrganizerID string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ReservationRepository stores reservations and answers the engine's
// point-in-time snapshot queries. All list results are ordered by start time
// ascending, then ID; the single-result conflict detectors document that
// order as authoritative.
type ReservationRepository interface {
	// CreateReservationChecked inserts the reservation only if no
	// reservation in the same schedule overlaps its interval, within a
	// single transaction. Returns ErrTimeConflict otherwise. This is the
	// serialized check-and-insert primitive; the engine's detectors are
	// advisory precomputation, not the enforcement point.
	CreateReservationChecked(ctx context.Context, reservation Reservation) error
	// UpdateReservationChecked re-runs the overlap check excluding the
	// reservation itself, then applies the update in the same transaction.
	UpdateReservationChecked(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error

	// Engine snapshot queries.
	ReservationsInSchedule(ctx context.Context, scheduleID string) ([]Reservation, error)
	ReservationsForUser(ctx context.Context, userID string) ([]Reservation, error)
	ReservationsAtFacility(ctx context.Context, building, roomNumber string) ([]Reservation, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
