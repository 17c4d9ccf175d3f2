package scheduler

import "context"

// Facility identifies a physical bookable resource as a building and room
// pair.
type Facility struct {
	Building   string
	RoomNumber string
}

// Reservation is a single concrete booking read from the event store. The
// engine never mutates reservations; it only reasons about them.
type Reservation struct {
	ID               string
	ScheduleID       string
	OrganizerID      string
	Title            string
	Facility         *Facility
	Interval         Interval
	RequiresApproval bool
}

// ConflictPair captures two reservations in the same schedule whose
// intervals overlap, along with the shared portion. It exists only as a
// computation result and is never persisted.
type ConflictPair struct {
	A       Reservation
	B       Reservation
	Overlap Interval
}

// Suggestion is a candidate free interval proposed by the slot suggester.
// Label is a display-only day name and carries no semantic weight.
type Suggestion struct {
	Interval Interval
	Label    string
}

// StrategyAction enumerates the kinds of resolution strategies the engine
// can propose for a conflicting pair of reservations.
type StrategyAction string

const (
	// ActionReschedule proposes moving one side of the conflict to an
	// alternative slot.
	ActionReschedule StrategyAction = "reschedule"
	// ActionAcceptOverlap proposes keeping both reservations despite the
	// overlap.
	ActionAcceptOverlap StrategyAction = "accept_overlap"
)

// StrategyTarget names which side of a conflict a reschedule strategy moves.
type StrategyTarget string

const (
	// TargetPrimary moves the reservation the caller is acting on.
	TargetPrimary StrategyTarget = "primary"
	// TargetConflicting moves the pre-existing reservation.
	TargetConflicting StrategyTarget = "conflicting"
)

// ResolutionStrategy is one remediation option for a conflicting pair.
// Target and Suggestions are set for reschedule strategies; Warning is set
// for accept-overlap strategies.
type ResolutionStrategy struct {
	Action      StrategyAction
	Target      StrategyTarget
	Suggestions []Suggestion
	Warning     string
}

// EventStore is the read snapshot the engine consumes. Implementations
// return reservations ordered by start time ascending; the single-result
// detectors document that order as the authoritative tie-break when several
// conflicts exist.
type EventStore interface {
	ReservationsInSchedule(ctx context.Context, scheduleID string) ([]Reservation, error)
	ReservationsForUser(ctx context.Context, userID string) ([]Reservation, error)
	ReservationsAtFacility(ctx context.Context, building, roomNumber string) ([]Reservation, error)
}
