package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/campus-scheduler/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository using SQLite.
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository creates the SQLite schedule repository.
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// CreateSchedule inserts a new schedule.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	if schedule.ID == "" || schedule.OwnerUserID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO schedules (id, owner_user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		schedule.ID,
		schedule.OwnerUserID,
		schedule.Title,
		formatTime(schedule.CreatedAt),
		formatTime(schedule.UpdatedAt),
	)
	return mapError(err)
}

// GetSchedule retrieves a schedule by ID.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	if id == "" {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	row := r.db.conn.QueryRowContext(ctx,
		"SELECT id, owner_user_id, title, created_at, updated_at FROM schedules WHERE id = ?", id)

	return scanSchedule(row)
}

// ListSchedulesForUser returns all schedules owned by the user, ordered by
// creation time.
func (r *ScheduleRepository) ListSchedulesForUser(ctx context.Context, ownerUserID string) ([]persistence.Schedule, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT id, owner_user_id, title, created_at, updated_at FROM schedules WHERE owner_user_id = ? ORDER BY created_at ASC, id ASC",
		ownerUserID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var schedules []persistence.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule and its reservations.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM reservations WHERE schedule_id = ?", id); err != nil {
			return mapError(err)
		}

		result, err := tx.Exec("DELETE FROM schedules WHERE id = ?", id)
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

func scanSchedule(row rowScanner) (persistence.Schedule, error) {
	var schedule persistence.Schedule
	var createdStr, updatedStr string

	err := row.Scan(&schedule.ID, &schedule.OwnerUserID, &schedule.Title, &createdStr, &updatedStr)
	if err != nil {
		return persistence.Schedule{}, mapError(err)
	}

	if schedule.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.Schedule{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if schedule.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.Schedule{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return schedule, nil
}
