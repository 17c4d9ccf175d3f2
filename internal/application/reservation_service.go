package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// ConflictWarningType classifies advisory conflict warnings attached to
// reservation writes.
type ConflictWarningType string

const (
	// WarningUserConflict flags an overlap with another schedule owned by
	// the same user.
	WarningUserConflict ConflictWarningType = "user"
	// WarningFacilityConflict flags an overlap at the same building and
	// room.
	WarningFacilityConflict ConflictWarningType = "facility"
)

// ConflictWarning is advisory: the write has already succeeded; the caller
// may still want to surface the clash.
type ConflictWarning struct {
	Type              ConflictWarningType
	WithReservationID string
	ScheduleID        string
	Building          *string
	RoomNumber        *string
}

// ReservationInput carries the caller-supplied reservation fields.
type ReservationInput struct {
	ScheduleID       string
	Title            string
	Description      *string
	Building         *string
	RoomNumber       *string
	Start            time.Time
	End              time.Time
	RequiresApproval bool
	RecurrenceLabel  *string
	RecurrenceEnd    *time.Time
}

// CreateReservationParams bundles a create request.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// UpdateReservationParams bundles an update request.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	Input         ReservationInput
}

// ListReservationsParams narrows a list request.
type ListReservationsParams struct {
	Principal   Principal
	ScheduleID  string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ReservationService orchestrates validation, authorization, conflict
// detection, and persistence for reservations. Hard same-schedule conflicts
// are enforced by the store's serialized check-and-insert; cross-schedule
// and facility overlaps are reported as advisory warnings.
type ReservationService struct {
	reservations persistence.ReservationRepository
	schedules    persistence.ScheduleRepository
	engine       *scheduler.Engine
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService wires dependencies for the reservation service.
func NewReservationService(
	reservations persistence.ReservationRepository,
	schedules persistence.ScheduleRepository,
	engine *scheduler.Engine,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationService{
		reservations: reservations,
		schedules:    schedules,
		engine:       engine,
		idGenerator:  idGenerator,
		now:          now,
		logger:       logger,
	}
}

// CreateReservation validates input, persists the reservation via the
// store's atomic check-and-insert, and returns advisory warnings for
// cross-schedule and facility overlaps.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (persistence.Reservation, []ConflictWarning, error) {
	input := normalizeReservationInput(params.Input)
	if vErr := validateReservationInput(input); vErr.HasErrors() {
		return persistence.Reservation{}, nil, vErr
	}

	schedule, err := s.authorizeSchedule(ctx, params.Principal, input.ScheduleID)
	if err != nil {
		return persistence.Reservation{}, nil, err
	}

	now := s.now()
	reservation := persistence.Reservation{
		ID:               s.idGenerator(),
		ScheduleID:       input.ScheduleID,
		OrganizerID:      params.Principal.UserID,
		Title:            input.Title,
		Description:      input.Description,
		Building:         input.Building,
		RoomNumber:       input.RoomNumber,
		Start:            input.Start,
		End:              input.End,
		RequiresApproval: input.RequiresApproval,
		RecurrenceLabel:  input.RecurrenceLabel,
		RecurrenceEnd:    input.RecurrenceEnd,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.reservations.CreateReservationChecked(ctx, reservation); err != nil {
		if errors.Is(err, persistence.ErrTimeConflict) {
			return persistence.Reservation{}, nil, ErrTimeConflict
		}
		return persistence.Reservation{}, nil, fmt.Errorf("create reservation: %w", err)
	}

	warnings, err := s.collectWarnings(ctx, schedule, reservation)
	if err != nil {
		// The write already succeeded; log and return without warnings
		// rather than failing the request.
		s.logger.WarnContext(ctx, "conflict warning computation failed", "reservation_id", reservation.ID, "error", err)
		return reservation, nil, nil
	}

	return reservation, warnings, nil
}

// UpdateReservation validates input and applies the update through the
// store's checked write, excluding the reservation itself from the overlap
// probe.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (persistence.Reservation, []ConflictWarning, error) {
	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Reservation{}, nil, ErrNotFound
		}
		return persistence.Reservation{}, nil, err
	}

	input := normalizeReservationInput(params.Input)
	if input.ScheduleID == "" {
		input.ScheduleID = existing.ScheduleID
	}
	if vErr := validateReservationInput(input); vErr.HasErrors() {
		return persistence.Reservation{}, nil, vErr
	}

	schedule, err := s.authorizeSchedule(ctx, params.Principal, input.ScheduleID)
	if err != nil {
		return persistence.Reservation{}, nil, err
	}

	updated := existing
	updated.ScheduleID = input.ScheduleID
	updated.Title = input.Title
	updated.Description = input.Description
	updated.Building = input.Building
	updated.RoomNumber = input.RoomNumber
	updated.Start = input.Start
	updated.End = input.End
	updated.RequiresApproval = input.RequiresApproval
	updated.RecurrenceLabel = input.RecurrenceLabel
	updated.RecurrenceEnd = input.RecurrenceEnd
	updated.UpdatedAt = s.now()

	if err := s.reservations.UpdateReservationChecked(ctx, updated); err != nil {
		switch {
		case errors.Is(err, persistence.ErrTimeConflict):
			return persistence.Reservation{}, nil, ErrTimeConflict
		case errors.Is(err, persistence.ErrNotFound):
			return persistence.Reservation{}, nil, ErrNotFound
		default:
			return persistence.Reservation{}, nil, fmt.Errorf("update reservation: %w", err)
		}
	}

	warnings, err := s.collectWarnings(ctx, schedule, updated)
	if err != nil {
		s.logger.WarnContext(ctx, "conflict warning computation failed", "reservation_id", updated.ID, "error", err)
		return updated, nil, nil
	}

	return updated, warnings, nil
}

// DeleteReservation removes a reservation owned by the principal.
func (s *ReservationService) DeleteReservation(ctx context.Context, principal Principal, reservationID string) error {
	existing, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if _, err := s.authorizeSchedule(ctx, principal, existing.ScheduleID); err != nil {
		return err
	}

	if err := s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListReservations returns reservations visible to the principal, scoped to
// one schedule when requested.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) ([]persistence.Reservation, error) {
	if params.ScheduleID != "" {
		if _, err := s.authorizeSchedule(ctx, params.Principal, params.ScheduleID); err != nil {
			return nil, err
		}
		return s.reservations.ListReservations(ctx, persistence.ReservationFilter{
			ScheduleID:  params.ScheduleID,
			StartsAfter: params.StartsAfter,
			EndsBefore:  params.EndsBefore,
		})
	}

	return s.reservations.ListReservations(ctx, persistence.ReservationFilter{
		OrganizerID: params.Principal.UserID,
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
	})
}

func (s *ReservationService) authorizeSchedule(ctx context.Context, principal Principal, scheduleID string) (persistence.Schedule, error) {
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

// collectWarnings runs the advisory detectors: overlaps in the owner's other
// schedules, and overlaps at the same facility.
func (s *ReservationService) collectWarnings(ctx context.Context, schedule persistence.Schedule, reservation persistence.Reservation) ([]ConflictWarning, error) {
	if s.engine == nil {
		return nil, nil
	}

	candidate := scheduler.Interval{Start: reservation.Start, End: reservation.End}
	var warnings []ConflictWarning

	userConflict, err := s.engine.FindUserConflict(ctx, candidate, schedule.OwnerUserID, reservation.ScheduleID)
	if err != nil {
		return nil, err
	}
	if userConflict != nil {
		warnings = append(warnings, ConflictWarning{
			Type:              WarningUserConflict,
			WithReservationID: userConflict.ID,
			ScheduleID:        userConflict.ScheduleID,
		})
	}

	if reservation.Building != nil && reservation.RoomNumber != nil {
		facilityConflicts, err := s.engine.FindFacilityConflicts(ctx, candidate, *reservation.Building, *reservation.RoomNumber, reservation.ID)
		if err != nil {
			return nil, err
		}
		for _, conflict := range facilityConflicts {
			warnings = append(warnings, ConflictWarning{
				Type:              WarningFacilityConflict,
				WithReservationID: conflict.ID,
				ScheduleID:        conflict.ScheduleID,
				Building:          reservation.Building,
				RoomNumber:        reservation.RoomNumber,
			})
		}
	}

	return warnings, nil
}

func normalizeReservationInput(input ReservationInput) ReservationInput {
	input.ScheduleID = strings.TrimSpace(input.ScheduleID)
	input.Title = strings.TrimSpace(input.Title)
	input.Building = trimPtr(input.Building)
	input.RoomNumber = trimPtr(input.RoomNumber)
	input.RecurrenceLabel = trimPtr(input.RecurrenceLabel)
	return input
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateReservationInput(input ReservationInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ScheduleID == "" {
		vErr.add("schedule_id", "schedule is required")
	}
	if input.Title == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("end", "start must be before end")
	}
	if (input.Building == nil) != (input.RoomNumber == nil) {
		vErr.add("facility", "building and room number must be provided together")
	}
	if input.RecurrenceEnd != nil && input.RecurrenceLabel == nil {
		vErr.add("recurrence", "recurrence end requires a recurrence label")
	}

	return vErr
}
