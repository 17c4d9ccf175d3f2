package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// AvailabilityResult reports the outcome of a candidate-interval probe.
type AvailabilityResult struct {
	Available bool
	Conflict  *scheduler.Reservation
}

// SuggestParams bundles an alternative-slot request.
type SuggestParams struct {
	ScheduleID      string
	Reference       scheduler.Interval
	DurationMinutes int
	HorizonDays     int
	ExcludeID       string
}

// CommonSlotParams bundles a group availability request.
type CommonSlotParams struct {
	ParticipantIDs  []string
	DurationMinutes int
	RangeStart      *time.Time
	RangeEnd        *time.Time
}

// ChainValidation reports whether a schedule's reservations form a strictly
// sequential chain.
type ChainValidation struct {
	Valid    bool
	Offender *scheduler.Reservation
}

// SchedulingService is the boundary facade over the conflict engine. It
// performs the precondition checks the engine deliberately leaves to its
// callers, then delegates.
type SchedulingService struct {
	engine       *scheduler.Engine
	reservations persistence.ReservationRepository
	reports      *reportCache
	logger       *slog.Logger
}

// NewSchedulingService wires the scheduling facade. Reports are cached per
// user for reportTTL; InvalidateReports must be called after reservation
// writes.
func NewSchedulingService(engine *scheduler.Engine, reservations persistence.ReservationRepository, reportTTL time.Duration, now func() time.Time, logger *slog.Logger) *SchedulingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchedulingService{
		engine:       engine,
		reservations: reservations,
		reports:      newReportCache(reportTTL, 0, now),
		logger:       logger,
	}
}

// CheckAvailability probes a candidate interval against one schedule.
func (s *SchedulingService) CheckAvailability(ctx context.Context, candidate scheduler.Interval, scheduleID, excludeID string) (AvailabilityResult, error) {
	if vErr := validateInterval(candidate); vErr.HasErrors() {
		return AvailabilityResult{}, vErr
	}

	conflict, err := s.engine.FindScheduleConflict(ctx, candidate, scheduleID, excludeID)
	if err != nil {
		return AvailabilityResult{}, err
	}
	return AvailabilityResult{Available: conflict == nil, Conflict: conflict}, nil
}

// FacilityAvailability returns every reservation colliding with the
// candidate at the given building and room.
func (s *SchedulingService) FacilityAvailability(ctx context.Context, candidate scheduler.Interval, building, roomNumber, excludeID string) ([]scheduler.Reservation, error) {
	vErr := validateInterval(candidate)
	if building == "" {
		vErr.add("building", "building is required")
	}
	if roomNumber == "" {
		vErr.add("room_number", "room number is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	return s.engine.FindFacilityConflicts(ctx, candidate, building, roomNumber, excludeID)
}

// SuggestAlternatives proposes free slots near the reference interval.
func (s *SchedulingService) SuggestAlternatives(ctx context.Context, params SuggestParams) ([]scheduler.Suggestion, error) {
	vErr := validateInterval(params.Reference)
	if params.ScheduleID == "" {
		vErr.add("schedule_id", "schedule is required")
	}
	if params.DurationMinutes < 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	return s.engine.SuggestAlternatives(ctx, params.Reference, params.ScheduleID, scheduler.SuggestOptions{
		Duration:    time.Duration(params.DurationMinutes) * time.Minute,
		HorizonDays: params.HorizonDays,
		ExcludeID:   params.ExcludeID,
	})
}

// FindCommonSlot searches for slots free for every participant. At least
// two participants and a positive duration are required.
func (s *SchedulingService) FindCommonSlot(ctx context.Context, params CommonSlotParams) ([]scheduler.Suggestion, error) {
	vErr := &ValidationError{}
	if len(params.ParticipantIDs) < 2 {
		vErr.add("participant_ids", "at least two participants are required")
	}
	if params.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if params.RangeStart != nil && params.RangeEnd != nil && !params.RangeStart.Before(*params.RangeEnd) {
		vErr.add("range_end", "range start must be before range end")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	return s.engine.FindCommonSlot(ctx, scheduler.CommonSlotRequest{
		ParticipantIDs: params.ParticipantIDs,
		Duration:       time.Duration(params.DurationMinutes) * time.Minute,
		RangeStart:     params.RangeStart,
		RangeEnd:       params.RangeEnd,
	})
}

// ResolveConflict loads both reservations and asks the engine for
// strategies, in fixed priority order.
func (s *SchedulingService) ResolveConflict(ctx context.Context, primaryID, conflictingID string) ([]scheduler.ResolutionStrategy, error) {
	primary, err := s.loadEngineReservation(ctx, primaryID)
	if err != nil {
		return nil, err
	}
	conflicting, err := s.loadEngineReservation(ctx, conflictingID)
	if err != nil {
		return nil, err
	}

	return s.engine.ResolveOverlap(ctx, primary, conflicting)
}

// ConflictReport inventories all intra-schedule conflicts for a user. The
// result is served from a short-lived cache when possible.
func (s *SchedulingService) ConflictReport(ctx context.Context, userID string) ([]scheduler.ConflictPair, error) {
	if pairs, ok := s.reports.Get(userID); ok {
		return pairs, nil
	}

	pairs, err := s.engine.GenerateConflictReport(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.reports.Store(userID, pairs)
	return pairs, nil
}

// InvalidateReports drops all cached conflict reports. Call after any
// reservation write.
func (s *SchedulingService) InvalidateReports() {
	s.reports.Invalidate()
}

// ValidateChain checks that a schedule's reservations are strictly
// sequential.
func (s *SchedulingService) ValidateChain(ctx context.Context, scheduleID string) (ChainValidation, error) {
	records, err := s.reservations.ReservationsInSchedule(ctx, scheduleID)
	if err != nil {
		return ChainValidation{}, err
	}

	valid, offender := scheduler.ValidateChain(toEngineReservations(records))
	return ChainValidation{Valid: valid, Offender: offender}, nil
}

func (s *SchedulingService) loadEngineReservation(ctx context.Context, id string) (scheduler.Reservation, error) {
	record, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return scheduler.Reservation{}, ErrNotFound
		}
		return scheduler.Reservation{}, err
	}
	return toEngineReservation(record), nil
}

func validateInterval(interval scheduler.Interval) *ValidationError {
	vErr := &ValidationError{}
	if interval.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if interval.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !interval.Start.IsZero() && !interval.End.IsZero() && !interval.Start.Before(interval.End) {
		vErr.add("end", "start must be before end")
	}
	return vErr
}
