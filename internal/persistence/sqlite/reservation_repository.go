package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository over
// SQLite. Timestamps are stored as RFC3339 UTC strings, which makes the
// lexicographic comparisons in the overlap queries equivalent to time
// comparisons.
type ReservationRepository struct {
	db *DB
}

// NewReservationRepository creates the SQLite reservation repository.
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, schedule_id, organizer_id, title, description, building, room_number,
	start_time, end_time, requires_approval, recurrence_label, recurrence_end, created_at, updated_at`

// CreateReservationChecked performs the serialized check-and-insert: the
// same-schedule overlap probe and the insert run inside one transaction, so
// two callers racing on the same slot cannot both succeed.
func (r *ReservationRepository) CreateReservationChecked(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" || !reservation.End.After(reservation.Start) {
		return persistence.ErrConstraintViolation
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		conflicted, err := overlapExistsTx(tx, reservation.ScheduleID, "", reservation.Start, reservation.End)
		if err != nil {
			return err
		}
		if conflicted {
			return persistence.ErrTimeConflict
		}
		return insertReservationTx(tx, reservation)
	})
}

// UpdateReservationChecked re-runs the overlap probe excluding the
// reservation itself, then applies the update in the same transaction.
func (r *ReservationRepository) UpdateReservationChecked(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" || !reservation.End.After(reservation.Start) {
		return persistence.ErrConstraintViolation
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		conflicted, err := overlapExistsTx(tx, reservation.ScheduleID, reservation.ID, reservation.Start, reservation.End)
		if err != nil {
			return err
		}
		if conflicted {
			return persistence.ErrTimeConflict
		}

		query := `UPDATE reservations
			SET schedule_id = ?, title = ?, description = ?, building = ?, room_number = ?,
				start_time = ?, end_time = ?, requires_approval = ?, recurrence_label = ?, recurrence_end = ?, updated_at = ?
			WHERE id = ?`

		result, err := tx.Exec(query,
			reservation.ScheduleID,
			reservation.Title,
			nullString(reservation.Description),
			nullString(reservation.Building),
			nullString(reservation.RoomNumber),
			formatTime(reservation.Start),
			formatTime(reservation.End),
			boolToInt(reservation.RequiresApproval),
			nullString(reservation.RecurrenceLabel),
			nullTime(reservation.RecurrenceEnd),
			formatTime(reservation.UpdatedAt),
			reservation.ID,
		)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// GetReservation retrieves a reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	row := r.db.conn.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	return reservation, nil
}

// ListReservations lists reservations matching the filter, ordered by start
// time ascending.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservations"
	var conditions []string
	var args []any

	if filter.ScheduleID != "" {
		conditions = append(conditions, "schedule_id = ?")
		args = append(args, filter.ScheduleID)
	}
	if filter.OrganizerID != "" {
		conditions = append(conditions, "organizer_id = ?")
		args = append(args, filter.OrganizerID)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return r.queryReservations(ctx, query, args...)
}

// DeleteReservation removes a reservation by ID.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.db.conn.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ReservationsInSchedule returns the point-in-time snapshot of a schedule's
// reservations, ordered by start time ascending.
func (r *ReservationRepository) ReservationsInSchedule(ctx context.Context, scheduleID string) ([]persistence.Reservation, error) {
	return r.queryReservations(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE schedule_id = ? ORDER BY start_time ASC, id ASC",
		scheduleID)
}

// ReservationsForUser returns all reservations across every schedule the
// user owns.
func (r *ReservationRepository) ReservationsForUser(ctx context.Context, userID string) ([]persistence.Reservation, error) {
	query := `SELECT r.id, r.schedule_id, r.organizer_id, r.title, r.description, r.building, r.room_number,
			r.start_time, r.end_time, r.requires_approval, r.recurrence_label, r.recurrence_end, r.created_at, r.updated_at
		FROM reservations r
		JOIN schedules s ON s.id = r.schedule_id
		WHERE s.owner_user_id = ?
		ORDER BY r.start_time ASC, r.id ASC`

	return r.queryReservations(ctx, query, userID)
}

// ReservationsAtFacility returns all reservations at the exact building and
// room pair.
func (r *ReservationRepository) ReservationsAtFacility(ctx context.Context, building, roomNumber string) ([]persistence.Reservation, error) {
	return r.queryReservations(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE building = ? AND room_number = ? ORDER BY start_time ASC, id ASC",
		building, roomNumber)
}

func (r *ReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, mapError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

func overlapExistsTx(tx *sql.Tx, scheduleID, excludeID string, start, end time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM reservations
		WHERE schedule_id = ? AND id != ? AND start_time < ? AND end_time > ?`

	var count int
	err := tx.QueryRow(query, scheduleID, excludeID, formatTime(end), formatTime(start)).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func insertReservationTx(tx *sql.Tx, reservation persistence.Reservation) error {
	query := `INSERT INTO reservations (` + reservationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := tx.Exec(query,
		reservation.ID,
		reservation.ScheduleID,
		reservation.OrganizerID,
		reservation.Title,
		nullString(reservation.Description),
		nullString(reservation.Building),
		nullString(reservation.RoomNumber),
		formatTime(reservation.Start),
		formatTime(reservation.End),
		boolToInt(reservation.RequiresApproval),
		nullString(reservation.RecurrenceLabel),
		nullTime(reservation.RecurrenceEnd),
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
	return mapError(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var description, building, roomNumber, recurrenceLabel sql.NullString
	var recurrenceEnd sql.NullString
	var startStr, endStr, createdStr, updatedStr string
	var requiresApproval int

	err := row.Scan(
		&reservation.ID,
		&reservation.ScheduleID,
		&reservation.OrganizerID,
		&reservation.Title,
		&description,
		&building,
		&roomNumber,
		&startStr,
		&endStr,
		&requiresApproval,
		&recurrenceLabel,
		&recurrenceEnd,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return persistence.Reservation{}, err
	}

	reservation.Description = stringPtr(description)
	reservation.Building = stringPtr(building)
	reservation.RoomNumber = stringPtr(roomNumber)
	reservation.RecurrenceLabel = stringPtr(recurrenceLabel)
	reservation.RequiresApproval = requiresApproval != 0

	if reservation.Start, err = parseTime(startStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parse start_time: %w", err)
	}
	if reservation.End, err = parseTime(endStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parse end_time: %w", err)
	}
	if reservation.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	if recurrenceEnd.Valid {
		ts, err := parseTime(recurrenceEnd.String)
		if err != nil {
			return persistence.Reservation{}, fmt.Errorf("sqlite: parse recurrence_end: %w", err)
		}
		reservation.RecurrenceEnd = &ts
	}

	return reservation, nil
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*value), Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
