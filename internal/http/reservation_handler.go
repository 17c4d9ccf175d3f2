package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (persistence.Reservation, []application.ConflictWarning, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (persistence.Reservation, []application.ConflictWarning, error)
	DeleteReservation(ctx context.Context, principal application.Principal, reservationID string) error
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]persistence.Reservation, error)
}

// ReportInvalidator lets the handler drop cached conflict reports after a
// successful write.
type ReportInvalidator interface {
	InvalidateReports()
}

type ReservationHandler struct {
	service   reservationService
	reports   ReportInvalidator
	responder responder
}

func NewReservationHandler(service reservationService, reports ReportInvalidator, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, reports: reports, responder: newResponder(defaultLogger(logger))}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservation, warnings, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidateReports()
	h.renderReservation(r.Context(), w, reservation, warnings, http.StatusCreated)
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservation, warnings, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Input:         req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidateReports()
	h.renderReservation(r.Context(), w, reservation, warnings, http.StatusOK)
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteReservation(r.Context(), principal, reservationID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.invalidateReports()
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := buildReservationListParams(r.URL.Query(), principal)

	reservations, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{
		Reservations: toReservationDTOs(reservations),
	})
}

func (h *ReservationHandler) invalidateReports() {
	if h.reports != nil {
		h.reports.InvalidateReports()
	}
}

func (h *ReservationHandler) renderReservation(ctx context.Context, w http.ResponseWriter, reservation persistence.Reservation, warnings []application.ConflictWarning, status int) {
	h.responder.writeJSON(ctx, w, status, reservationResponse{
		Reservation: toReservationDTO(reservation),
		Warnings:    toWarningDTOs(warnings),
	})
}

type reservationRequest struct {
	ScheduleID       string  `json:"schedule_id"`
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	Building         *string `json:"building"`
	RoomNumber       *string `json:"room_number"`
	Start            string  `json:"start"`
	End              string  `json:"end"`
	RequiresApproval bool    `json:"requires_approval"`
	RecurrenceLabel  *string `json:"recurrence_label"`
	RecurrenceEnd    *string `json:"recurrence_end"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	input := application.ReservationInput{
		ScheduleID:       strings.TrimSpace(r.ScheduleID),
		Title:            strings.TrimSpace(r.Title),
		Description:      r.Description,
		Building:         r.Building,
		RoomNumber:       r.RoomNumber,
		Start:            parseTime(r.Start),
		End:              parseTime(r.End),
		RequiresApproval: r.RequiresApproval,
		RecurrenceLabel:  r.RecurrenceLabel,
	}
	if r.RecurrenceEnd != nil {
		if ts := parseTime(*r.RecurrenceEnd); !ts.IsZero() {
			input.RecurrenceEnd = &ts
		}
	}
	return input
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type reservationResponse struct {
	Reservation reservationDTO       `json:"reservation"`
	Warnings    []conflictWarningDTO `json:"warnings,omitempty"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID               string  `json:"id"`
	ScheduleID       string  `json:"schedule_id"`
	OrganizerID      string  `json:"organizer_id"`
	Title            string  `json:"title"`
	Description      *string `json:"description,omitempty"`
	Building         *string `json:"building,omitempty"`
	RoomNumber       *string `json:"room_number,omitempty"`
	Start            string  `json:"start"`
	End              string  `json:"end"`
	RequiresApproval bool    `json:"requires_approval"`
	RecurrenceLabel  *string `json:"recurrence_label,omitempty"`
	RecurrenceEnd    *string `json:"recurrence_end,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func toReservationDTO(reservation persistence.Reservation) reservationDTO {
	dto := reservationDTO{
		ID:               reservation.ID,
		ScheduleID:       reservation.ScheduleID,
		OrganizerID:      reservation.OrganizerID,
		Title:            reservation.Title,
		Description:      reservation.Description,
		Building:         reservation.Building,
		RoomNumber:       reservation.RoomNumber,
		Start:            reservation.Start.UTC().Format(time.RFC3339Nano),
		End:              reservation.End.UTC().Format(time.RFC3339Nano),
		RequiresApproval: reservation.RequiresApproval,
		RecurrenceLabel:  reservation.RecurrenceLabel,
		CreatedAt:        reservation.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        reservation.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if reservation.RecurrenceEnd != nil {
		formatted := reservation.RecurrenceEnd.UTC().Format(time.RFC3339Nano)
		dto.RecurrenceEnd = &formatted
	}
	return dto
}

func toReservationDTOs(reservations []persistence.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

type conflictWarningDTO struct {
	Type              string  `json:"type"`
	WithReservationID string  `json:"with_reservation_id"`
	ScheduleID        string  `json:"schedule_id"`
	Building          *string `json:"building,omitempty"`
	RoomNumber        *string `json:"room_number,omitempty"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			Type:              string(warning.Type),
			WithReservationID: warning.WithReservationID,
			ScheduleID:        warning.ScheduleID,
			Building:          warning.Building,
			RoomNumber:        warning.RoomNumber,
		})
	}
	return out
}

func buildReservationListParams(values url.Values, principal application.Principal) application.ListReservationsParams {
	params := application.ListReservationsParams{Principal: principal}

	params.ScheduleID = strings.TrimSpace(values.Get("schedule_id"))

	if after := strings.TrimSpace(values.Get("starts_after")); after != "" {
		if ts := parseTime(after); !ts.IsZero() {
			params.StartsAfter = &ts
		}
	}
	if before := strings.TrimSpace(values.Get("ends_before")); before != "" {
		if ts := parseTime(before); !ts.IsZero() {
			params.EndsBefore = &ts
		}
	}

	return params
}
