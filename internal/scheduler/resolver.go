package scheduler

import (
	"context"
	"sort"
)

const acceptOverlapWarning = "this will create a time conflict"

const rescheduleSuggestionLimit = 3

// ResolveOverlap proposes remediation strategies for two conflicting
// reservations, in fixed priority order: reschedule the primary, reschedule
// the conflicting reservation, accept the overlap. Strategies are
// independent and any subset may be present; the list is empty when neither
// side has free alternatives and the primary requires approval.
func (e *Engine) ResolveOverlap(ctx context.Context, primary, conflicting Reservation) ([]ResolutionStrategy, error) {
	var strategies []ResolutionStrategy

	for _, side := range []struct {
		target      StrategyTarget
		reservation Reservation
	}{
		{TargetPrimary, primary},
		{TargetConflicting, conflicting},
	} {
		alternatives, err := e.SuggestAlternatives(ctx, side.reservation.Interval, side.reservation.ScheduleID, SuggestOptions{
			ExcludeID: side.reservation.ID,
		})
		if err != nil {
			return nil, err
		}
		if len(alternatives) == 0 {
			continue
		}
		if len(alternatives) > rescheduleSuggestionLimit {
			alternatives = alternatives[:rescheduleSuggestionLimit]
		}
		strategies = append(strategies, ResolutionStrategy{
			Action:      ActionReschedule,
			Target:      side.target,
			Suggestions: alternatives,
		})
	}

	if !primary.RequiresApproval {
		strategies = append(strategies, ResolutionStrategy{
			Action:  ActionAcceptOverlap,
			Warning: acceptOverlapWarning,
		})
	}

	return strategies, nil
}

// GenerateConflictReport inventories every overlapping pair of reservations
// within each schedule the user owns. Pairs are unordered: each conflict
// appears once, with the earlier-starting reservation first. Per-schedule
// reservation counts are small, so the quadratic scan is acceptable.
func (e *Engine) GenerateConflictReport(ctx context.Context, userID string) ([]ConflictPair, error) {
	reservations, err := e.store.ReservationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	bySchedule := make(map[string][]Reservation)
	var scheduleOrder []string
	for _, reservation := range reservations {
		if _, seen := bySchedule[reservation.ScheduleID]; !seen {
			scheduleOrder = append(scheduleOrder, reservation.ScheduleID)
		}
		bySchedule[reservation.ScheduleID] = append(bySchedule[reservation.ScheduleID], reservation)
	}
	sort.Strings(scheduleOrder)

	var pairs []ConflictPair
	for _, scheduleID := range scheduleOrder {
		group := bySchedule[scheduleID]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Interval.Start.Equal(group[j].Interval.Start) {
				return group[i].ID < group[j].ID
			}
			return group[i].Interval.Start.Before(group[j].Interval.Start)
		})

		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				overlap, ok := group[i].Interval.Intersect(group[j].Interval)
				if !ok {
					continue
				}
				pairs = append(pairs, ConflictPair{A: group[i], B: group[j], Overlap: overlap})
			}
		}
	}

	return pairs, nil
}

// ValidateChain checks that a set of reservations forms a strictly
// sequential chain once sorted by start time: no reservation may begin
// before the previous one ends. Adjacent touching is allowed. Returns the
// first offending reservation when the chain is broken.
func ValidateChain(reservations []Reservation) (bool, *Reservation) {
	sorted := make([]Reservation, len(reservations))
	copy(sorted, reservations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Interval.Start.Before(sorted[j].Interval.Start)
	})

	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i].Interval.End.After(sorted[i+1].Interval.Start) {
			offender := sorted[i+1]
			return false, &offender
		}
	}

	return true, nil
}
