package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// CreateScheduleParams bundles a schedule create request.
type CreateScheduleParams struct {
	Principal Principal
	Title     string
}

// ScheduleService manages the named reservation collections.
type ScheduleService struct {
	schedules   persistence.ScheduleRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewScheduleService wires dependencies for the schedule service.
func NewScheduleService(schedules persistence.ScheduleRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleService{
		schedules:   schedules,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateSchedule creates a schedule owned by the principal.
func (s *ScheduleService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (persistence.Schedule, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		vErr := &ValidationError{}
		vErr.add("title", "title is required")
		return persistence.Schedule{}, vErr
	}

	now := s.now()
	schedule := persistence.Schedule{
		ID:          s.idGenerator(),
		OwnerUserID: params.Principal.UserID,
		Title:       title,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.schedules.CreateSchedule(ctx, schedule); err != nil {
		return persistence.Schedule{}, err
	}
	return schedule, nil
}

// GetSchedule returns a schedule visible to the principal.
func (s *ScheduleService) GetSchedule(ctx context.Context, principal Principal, scheduleID string) (persistence.Schedule, error) {
	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Schedule{}, ErrNotFound
		}
		return persistence.Schedule{}, err
	}
	if !principal.IsAdmin && schedule.OwnerUserID != principal.UserID {
		return persistence.Schedule{}, ErrUnauthorized
	}
	return schedule, nil
}

// ListSchedules returns the schedules the principal owns.
func (s *ScheduleService) ListSchedules(ctx context.Context, principal Principal) ([]persistence.Schedule, error) {
	return s.schedules.ListSchedulesForUser(ctx, principal.UserID)
}

// DeleteSchedule removes a schedule owned by the principal. Reservations in
// the schedule are removed by the store's cascade.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, principal Principal, scheduleID string) error {
	if _, err := s.GetSchedule(ctx, principal, scheduleID); err != nil {
		return err
	}
	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
