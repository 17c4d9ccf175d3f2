package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/scheduler"
)

type schedulingService interface {
	CheckAvailability(ctx context.Context, candidate scheduler.Interval, scheduleID, excludeID string) (application.AvailabilityResult, error)
	FacilityAvailability(ctx context.Context, candidate scheduler.Interval, building, roomNumber, excludeID string) ([]scheduler.Reservation, error)
	SuggestAlternatives(ctx context.Context, params application.SuggestParams) ([]scheduler.Suggestion, error)
	FindCommonSlot(ctx context.Context, params application.CommonSlotParams) ([]scheduler.Suggestion, error)
	ResolveConflict(ctx context.Context, primaryID, conflictingID string) ([]scheduler.ResolutionStrategy, error)
	ConflictReport(ctx context.Context, userID string) ([]scheduler.ConflictPair, error)
	ValidateChain(ctx context.Context, scheduleID string) (application.ChainValidation, error)
}

type calendarService interface {
	DailySchedule(ctx context.Context, userID string, date time.Time) (application.DaySchedule, error)
	WeeklySchedule(ctx context.Context, userID string, weekStart time.Time) (application.WeekSchedule, error)
}

// SchedulingHandler exposes the conflict engine over HTTP: availability
// probes, slot suggestions, conflict resolution, reports, and calendar views.
type SchedulingHandler struct {
	service   schedulingService
	calendar  calendarService
	responder responder
}

func NewSchedulingHandler(service schedulingService, calendar calendarService, logger *slog.Logger) *SchedulingHandler {
	return &SchedulingHandler{service: service, calendar: calendar, responder: newResponder(defaultLogger(logger))}
}

func (h *SchedulingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), scheduler.Interval{
		Start: parseTime(req.Start),
		End:   parseTime(req.End),
	}, strings.TrimSpace(req.ScheduleID), strings.TrimSpace(req.ExcludeID))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := availabilityResponse{Available: result.Available}
	if result.Conflict != nil {
		dto := toEngineReservationDTO(*result.Conflict)
		response.Conflict = &dto
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

func (h *SchedulingHandler) FacilityAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req facilityAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	conflicts, err := h.service.FacilityAvailability(r.Context(), scheduler.Interval{
		Start: parseTime(req.Start),
		End:   parseTime(req.End),
	}, strings.TrimSpace(req.Building), strings.TrimSpace(req.RoomNumber), strings.TrimSpace(req.ExcludeID))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, facilityAvailabilityResponse{
		Available: len(conflicts) == 0,
		Conflicts: toEngineReservationDTOs(conflicts),
	})
}

func (h *SchedulingHandler) SuggestAlternatives(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	suggestions, err := h.service.SuggestAlternatives(r.Context(), application.SuggestParams{
		ScheduleID: strings.TrimSpace(req.ScheduleID),
		Reference: scheduler.Interval{
			Start: parseTime(req.Start),
			End:   parseTime(req.End),
		},
		DurationMinutes: req.DurationMinutes,
		HorizonDays:     req.HorizonDays,
		ExcludeID:       strings.TrimSpace(req.ExcludeID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, suggestionsResponse{Suggestions: toSuggestionDTOs(suggestions)})
}

func (h *SchedulingHandler) FindCommonSlot(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req commonSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params := application.CommonSlotParams{
		ParticipantIDs:  req.ParticipantIDs,
		DurationMinutes: req.DurationMinutes,
	}
	if ts := parseTime(req.RangeStart); !ts.IsZero() {
		params.RangeStart = &ts
	}
	if ts := parseTime(req.RangeEnd); !ts.IsZero() {
		params.RangeEnd = &ts
	}

	suggestions, err := h.service.FindCommonSlot(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, suggestionsResponse{Suggestions: toSuggestionDTOs(suggestions)})
}

func (h *SchedulingHandler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	strategies, err := h.service.ResolveConflict(r.Context(), strings.TrimSpace(req.PrimaryID), strings.TrimSpace(req.ConflictingID))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resolveConflictResponse{Strategies: toStrategyDTOs(strategies)})
}

func (h *SchedulingHandler) ConflictReport(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	userID := principal.UserID
	if requested := strings.TrimSpace(r.URL.Query().Get("user_id")); requested != "" && requested != principal.UserID {
		if !principal.IsAdmin {
			h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
			return
		}
		userID = requested
	}

	pairs, err := h.service.ConflictReport(r.Context(), userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictReportResponse{
		UserID:    userID,
		Conflicts: toConflictPairDTOs(pairs),
	})
}

func (h *SchedulingHandler) ValidateChain(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	result, err := h.service.ValidateChain(r.Context(), scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := chainValidationResponse{Valid: result.Valid}
	if result.Offender != nil {
		dto := toEngineReservationDTO(*result.Offender)
		response.Offender = &dto
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

func (h *SchedulingHandler) DailyCalendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.calendar == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := parseDateParam(r, "date")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	day, err := h.calendar.DailySchedule(r.Context(), principal.UserID, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayScheduleDTO(day))
}

func (h *SchedulingHandler) WeeklyCalendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.calendar == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	start, err := parseDateParam(r, "start")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	week, err := h.calendar.WeeklySchedule(r.Context(), principal.UserID, start)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := weekScheduleDTO{
		WeekStart: week.WeekStart.Format("2006-01-02"),
		Days:      make([]dayScheduleDTO, 0, len(week.Days)),
	}
	for _, day := range week.Days {
		response.Days = append(response.Days, toDayScheduleDTO(day))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

type availabilityRequest struct {
	ScheduleID string `json:"schedule_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	ExcludeID  string `json:"exclude_id"`
}

type availabilityResponse struct {
	Available bool                  `json:"available"`
	Conflict  *engineReservationDTO `json:"conflict,omitempty"`
}

type facilityAvailabilityRequest struct {
	Building   string `json:"building"`
	RoomNumber string `json:"room_number"`
	Start      string `json:"start"`
	End        string `json:"end"`
	ExcludeID  string `json:"exclude_id"`
}

type facilityAvailabilityResponse struct {
	Available bool                   `json:"available"`
	Conflicts []engineReservationDTO `json:"conflicts,omitempty"`
}

type suggestRequest struct {
	ScheduleID      string `json:"schedule_id"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
	HorizonDays     int    `json:"horizon_days"`
	ExcludeID       string `json:"exclude_id"`
}

type commonSlotRequest struct {
	ParticipantIDs  []string `json:"participant_ids"`
	DurationMinutes int      `json:"duration_minutes"`
	RangeStart      string   `json:"range_start"`
	RangeEnd        string   `json:"range_end"`
}

type suggestionsResponse struct {
	Suggestions []suggestionDTO `json:"suggestions"`
}

type suggestionDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

func toSuggestionDTOs(suggestions []scheduler.Suggestion) []suggestionDTO {
	if len(suggestions) == 0 {
		return nil
	}
	out := make([]suggestionDTO, 0, len(suggestions))
	for _, suggestion := range suggestions {
		out = append(out, suggestionDTO{
			Start: suggestion.Interval.Start.UTC().Format(time.RFC3339Nano),
			End:   suggestion.Interval.End.UTC().Format(time.RFC3339Nano),
			Label: suggestion.Label,
		})
	}
	return out
}

type resolveConflictRequest struct {
	PrimaryID     string `json:"primary_id"`
	ConflictingID string `json:"conflicting_id"`
}

type resolveConflictResponse struct {
	Strategies []strategyDTO `json:"strategies"`
}

type strategyDTO struct {
	Action      string          `json:"action"`
	Target      string          `json:"target,omitempty"`
	Suggestions []suggestionDTO `json:"suggestions,omitempty"`
	Warning     string          `json:"warning,omitempty"`
}

func toStrategyDTOs(strategies []scheduler.ResolutionStrategy) []strategyDTO {
	if len(strategies) == 0 {
		return nil
	}
	out := make([]strategyDTO, 0, len(strategies))
	for _, strategy := range strategies {
		out = append(out, strategyDTO{
			Action:      string(strategy.Action),
			Target:      string(strategy.Target),
			Suggestions: toSuggestionDTOs(strategy.Suggestions),
			Warning:     strategy.Warning,
		})
	}
	return out
}

type conflictReportResponse struct {
	UserID    string            `json:"user_id"`
	Conflicts []conflictPairDTO `json:"conflicts"`
}

type conflictPairDTO struct {
	A              engineReservationDTO `json:"a"`
	B              engineReservationDTO `json:"b"`
	OverlapStart   string               `json:"overlap_start"`
	OverlapEnd     string               `json:"overlap_end"`
	OverlapMinutes float64              `json:"overlap_minutes"`
}

func toConflictPairDTOs(pairs []scheduler.ConflictPair) []conflictPairDTO {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]conflictPairDTO, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, conflictPairDTO{
			A:              toEngineReservationDTO(pair.A),
			B:              toEngineReservationDTO(pair.B),
			OverlapStart:   pair.Overlap.Start.UTC().Format(time.RFC3339Nano),
			OverlapEnd:     pair.Overlap.End.UTC().Format(time.RFC3339Nano),
			OverlapMinutes: pair.Overlap.Minutes(),
		})
	}
	return out
}

type chainValidationResponse struct {
	Valid    bool                  `json:"valid"`
	Offender *engineReservationDTO `json:"offender,omitempty"`
}

type engineReservationDTO struct {
	ID         string  `json:"id"`
	ScheduleID string  `json:"schedule_id"`
	Title      string  `json:"title"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Building   *string `json:"building,omitempty"`
	RoomNumber *string `json:"room_number,omitempty"`
}

func toEngineReservationDTO(reservation scheduler.Reservation) engineReservationDTO {
	dto := engineReservationDTO{
		ID:         reservation.ID,
		ScheduleID: reservation.ScheduleID,
		Title:      reservation.Title,
		Start:      reservation.Interval.Start.UTC().Format(time.RFC3339Nano),
		End:        reservation.Interval.End.UTC().Format(time.RFC3339Nano),
	}
	if reservation.Facility != nil {
		building := reservation.Facility.Building
		room := reservation.Facility.RoomNumber
		dto.Building = &building
		dto.RoomNumber = &room
	}
	return dto
}

func toEngineReservationDTOs(reservations []scheduler.Reservation) []engineReservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]engineReservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toEngineReservationDTO(reservation))
	}
	return out
}

type dayScheduleDTO struct {
	Date         string           `json:"date"`
	Weekday      string           `json:"weekday"`
	Reservations []reservationDTO `json:"reservations"`
}

func toDayScheduleDTO(day application.DaySchedule) dayScheduleDTO {
	return dayScheduleDTO{
		Date:         day.Date.Format("2006-01-02"),
		Weekday:      day.WeekdayName(),
		Reservations: toReservationDTOs(day.Reservations),
	}
}

type weekScheduleDTO struct {
	WeekStart string           `json:"week_start"`
	Days      []dayScheduleDTO `json:"days"`
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return time.Time{}, errMissingDateParam
	}
	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errInvalidDateParam
	}
	return ts, nil
}
