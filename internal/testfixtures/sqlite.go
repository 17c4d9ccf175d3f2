package testfixtures

import (
	"context"
	"testing"

	"github.com/example/campus-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness bundles an in-memory database with the repositories under
// test. The database is migrated on construction and closed via t.Cleanup.
type SQLiteHarness struct {
	DB           *sqlite.DB
	Users        *sqlite.UserRepository
	Schedules    *sqlite.ScheduleRepository
	Reservations *sqlite.ReservationRepository
	Sessions     *sqlite.SessionRepository
}

// NewSQLiteHarness opens and migrates a fresh in-memory SQLite database.
func NewSQLiteHarness(t *testing.T) *SQLiteHarness {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close sqlite: %v", err)
		}
	})

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}

	return &SQLiteHarness{
		DB:           db,
		Users:        sqlite.NewUserRepository(db),
		Schedules:    sqlite.NewScheduleRepository(db),
		Reservations: sqlite.NewReservationRepository(db),
		Sessions:     sqlite.NewSessionRepository(db),
	}
}
