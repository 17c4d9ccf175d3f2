package scheduler

import (
	"context"
	"time"
)

// SuggestOptions refines a single-schedule suggestion search. All fields are
// optional.
type SuggestOptions struct {
	// Duration of the slot to search for. Defaults to the reference
	// interval's own length.
	Duration time.Duration
	// HorizonDays overrides the engine's configured search horizon.
	HorizonDays int
	// ExcludeID skips one reservation during conflict checks, so that a
	// reservation being rescheduled does not collide with itself.
	ExcludeID string
}

// SuggestAlternatives walks calendar days from the reference interval's day
// across the horizon, probing candidate start times at 30-minute granularity
// within the working window, and returns the first free slots in
// chronological order. The result is capped at the configured maximum
// (default 5) and may be shorter, or empty, when the horizon is crowded.
func (e *Engine) SuggestAlternatives(ctx context.Context, reference Interval, scheduleID string, opts SuggestOptions) ([]Suggestion, error) {
	duration := opts.Duration
	if duration <= 0 {
		duration = reference.Duration()
	}
	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = e.opts.HorizonDays
	}

	loc := e.opts.Location
	base := reference.Start.In(loc)

	var suggestions []Suggestion
	for dayOffset := 0; dayOffset < horizon; dayOffset++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// AddDate rolls months and years correctly; replacing the
		// day-of-month field breaks when the horizon crosses a month
		// boundary.
		day := base.AddDate(0, 0, dayOffset)

		for hour := e.opts.WorkdayStartHour; hour < e.opts.WorkdayEndHour; hour++ {
			for _, minute := range []int{0, 30} {
				start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
				candidate := Interval{Start: start, End: start.Add(duration)}

				conflict, err := e.FindScheduleConflict(ctx, candidate, scheduleID, opts.ExcludeID)
				if err != nil {
					return nil, err
				}
				if conflict != nil {
					continue
				}

				suggestions = append(suggestions, Suggestion{
					Interval: candidate,
					Label:    start.Weekday().String(),
				})
				if len(suggestions) >= e.opts.MaxSuggestions {
					return suggestions, nil
				}
			}
		}
	}

	return suggestions, nil
}

// CommonSlotRequest describes a group availability search.
type CommonSlotRequest struct {
	// ParticipantIDs lists the users who must all be free. The boundary
	// layer guarantees at least two entries.
	ParticipantIDs []string
	// Duration of the slot to search for.
	Duration time.Duration
	// RangeStart defaults to now; RangeEnd defaults to RangeStart plus the
	// configured group range (14 days).
	RangeStart *time.Time
	RangeEnd   *time.Time
}

// FindCommonSlot sweeps the requested range at 1-hour granularity, starting
// from the working-day start of the first day, and accepts a candidate only
// when every participant is conflict-free across its full duration. The
// group sweep is deliberately coarser than the single-schedule search and
// does not re-clamp candidates into the working window on later days; the
// observable ordering and cap match the single-schedule search.
func (e *Engine) FindCommonSlot(ctx context.Context, req CommonSlotRequest) ([]Suggestion, error) {
	loc := e.opts.Location

	rangeStart := e.now().In(loc)
	if req.RangeStart != nil {
		rangeStart = req.RangeStart.In(loc)
	}
	rangeEnd := rangeStart.AddDate(0, 0, e.opts.GroupRangeDays)
	if req.RangeEnd != nil {
		rangeEnd = req.RangeEnd.In(loc)
	}

	current := time.Date(rangeStart.Year(), rangeStart.Month(), rangeStart.Day(), e.opts.WorkdayStartHour, 0, 0, 0, loc)

	var slots []Suggestion
	for current.Before(rangeEnd) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate := Interval{Start: current, End: current.Add(req.Duration)}

		allFree := true
		for _, userID := range req.ParticipantIDs {
			conflict, err := e.FindUserConflict(ctx, candidate, userID, "")
			if err != nil {
				return nil, err
			}
			if conflict != nil {
				allFree = false
				break
			}
		}

		if allFree {
			slots = append(slots, Suggestion{
				Interval: candidate,
				Label:    current.Format("Monday, January 02"),
			})
			if len(slots) >= e.opts.MaxSuggestions {
				return slots, nil
			}
		}

		current = current.Add(time.Hour)
	}

	return slots, nil
}
