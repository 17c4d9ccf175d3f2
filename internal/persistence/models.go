package persistence

import "time"

// User represents an account in the reservation system.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Schedule is a named collection of reservations owned by one user.
type Schedule struct {
	ID          string
	OwnerUserID string
	Title       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reservation is a single concrete booking within a schedule, optionally
// against a facility. Recurrence fields are a stamped label and end date
// only; the system does not expand recurrence series.
type Reservation struct {
	ID               string
	ScheduleID       string
	OrganizerID      string
	Title            string
	Description      *string
	Building         *string
	RoomNumber       *string
	Start            time.Time
	End              time.Time
	RequiresApproval bool
	RecurrenceLabel  *string
	RecurrenceEnd    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
