package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

type fakeSchedulingService struct {
	availability application.AvailabilityResult
	strategies   []scheduler.ResolutionStrategy
	pairs        []scheduler.ConflictPair
	chain        application.ChainValidation
	err          error
}

func (f *fakeSchedulingService) CheckAvailability(ctx context.Context, candidate scheduler.Interval, scheduleID, excludeID string) (application.AvailabilityResult, error) {
	return f.availability, f.err
}

func (f *fakeSchedulingService) FacilityAvailability(ctx context.Context, candidate scheduler.Interval, building, roomNumber, excludeID string) ([]scheduler.Reservation, error) {
	return nil, f.err
}

func (f *fakeSchedulingService) SuggestAlternatives(ctx context.Context, params application.SuggestParams) ([]scheduler.Suggestion, error) {
	return nil, f.err
}

func (f *fakeSchedulingService) FindCommonSlot(ctx context.Context, params application.CommonSlotParams) ([]scheduler.Suggestion, error) {
	return nil, f.err
}

func (f *fakeSchedulingService) ResolveConflict(ctx context.Context, primaryID, conflictingID string) ([]scheduler.ResolutionStrategy, error) {
	return f.strategies, f.err
}

func (f *fakeSchedulingService) ConflictReport(ctx context.Context, userID string) ([]scheduler.ConflictPair, error) {
	return f.pairs, f.err
}

func (f *fakeSchedulingService) ValidateChain(ctx context.Context, scheduleID string) (application.ChainValidation, error) {
	return f.chain, f.err
}

type fakeReservationService struct {
	reservation persistence.Reservation
	warnings    []application.ConflictWarning
	err         error
}

func (f *fakeReservationService) CreateReservation(ctx context.Context, params application.CreateReservationParams) (persistence.Reservation, []application.ConflictWarning, error) {
	return f.reservation, f.warnings, f.err
}

func (f *fakeReservationService) UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (persistence.Reservation, []application.ConflictWarning, error) {
	return f.reservation, f.warnings, f.err
}

func (f *fakeReservationService) DeleteReservation(ctx context.Context, principal application.Principal, reservationID string) error {
	return f.err
}

func (f *fakeReservationService) ListReservations(ctx context.Context, params application.ListReservationsParams) ([]persistence.Reservation, error) {
	return nil, f.err
}

func withPrincipal(principal application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestSchedulingHandlers(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	t.Run("availability probe reports the conflict", func(t *testing.T) {
		t.Parallel()

		service := &fakeSchedulingService{
			availability: application.AvailabilityResult{
				Available: false,
				Conflict: &scheduler.Reservation{
					ID:         "res-1",
					ScheduleID: "sched-1",
					Title:      "Standup",
					Interval:   scheduler.Interval{Start: base, End: base.Add(time.Hour)},
				},
			},
		}
		router := NewRouter(RouterConfig{
			Scheduling: NewSchedulingHandler(service, nil, nil),
			Middleware: []func(http.Handler) http.Handler{withPrincipal(application.Principal{UserID: "user-1"})},
		})

		body := `{"schedule_id":"sched-1","start":"2025-06-02T09:30:00Z","end":"2025-06-02T10:30:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/availability", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		var resp availabilityResponse
		decodeBody(t, recorder, &resp)
		if resp.Available || resp.Conflict == nil || resp.Conflict.ID != "res-1" {
			t.Fatalf("unexpected response %+v", resp)
		}
	})

	t.Run("validation errors map to 422 with field details", func(t *testing.T) {
		t.Parallel()

		vErr := &application.ValidationError{}
		vErr.FieldErrors = map[string]string{"end": "start must be before end"}
		service := &fakeSchedulingService{err: vErr}
		router := NewRouter(RouterConfig{Scheduling: NewSchedulingHandler(service, nil, nil)})

		req := httptest.NewRequest(http.MethodPost, "/availability", strings.NewReader(`{}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", recorder.Code)
		}
		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.Errors["end"] != "start must be before end" {
			t.Fatalf("unexpected error payload %+v", resp)
		}
	})

	t.Run("conflict report serializes overlap minutes", func(t *testing.T) {
		t.Parallel()

		service := &fakeSchedulingService{
			pairs: []scheduler.ConflictPair{{
				A:       scheduler.Reservation{ID: "res-1", Interval: scheduler.Interval{Start: base, End: base.Add(time.Hour)}},
				B:       scheduler.Reservation{ID: "res-2", Interval: scheduler.Interval{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)}},
				Overlap: scheduler.Interval{Start: base.Add(30 * time.Minute), End: base.Add(time.Hour)},
			}},
		}
		router := NewRouter(RouterConfig{
			Scheduling: NewSchedulingHandler(service, nil, nil),
			Middleware: []func(http.Handler) http.Handler{withPrincipal(application.Principal{UserID: "user-1"})},
		})

		req := httptest.NewRequest(http.MethodGet, "/conflicts/report", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		var resp conflictReportResponse
		decodeBody(t, recorder, &resp)
		if len(resp.Conflicts) != 1 {
			t.Fatalf("expected one conflict pair, got %d", len(resp.Conflicts))
		}
		if resp.Conflicts[0].OverlapMinutes != 30 {
			t.Fatalf("expected 30 overlap minutes, got %v", resp.Conflicts[0].OverlapMinutes)
		}
	})

	t.Run("non-admins cannot read another user's report", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{
			Scheduling: NewSchedulingHandler(&fakeSchedulingService{}, nil, nil),
			Middleware: []func(http.Handler) http.Handler{withPrincipal(application.Principal{UserID: "user-1"})},
		})

		req := httptest.NewRequest(http.MethodGet, "/conflicts/report?user_id=user-2", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", recorder.Code)
		}
	})

	t.Run("resolution strategies serialize action and target", func(t *testing.T) {
		t.Parallel()

		service := &fakeSchedulingService{
			strategies: []scheduler.ResolutionStrategy{
				{Action: scheduler.ActionReschedule, Target: scheduler.TargetPrimary},
				{Action: scheduler.ActionAcceptOverlap, Warning: "this will create a time conflict"},
			},
		}
		router := NewRouter(RouterConfig{Scheduling: NewSchedulingHandler(service, nil, nil)})

		body := `{"primary_id":"res-1","conflicting_id":"res-2"}`
		req := httptest.NewRequest(http.MethodPost, "/conflicts/resolutions", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		var resp resolveConflictResponse
		decodeBody(t, recorder, &resp)
		if len(resp.Strategies) != 2 {
			t.Fatalf("expected two strategies, got %d", len(resp.Strategies))
		}
		if resp.Strategies[0].Action != "reschedule" || resp.Strategies[0].Target != "primary" {
			t.Fatalf("unexpected first strategy %+v", resp.Strategies[0])
		}
		if resp.Strategies[1].Action != "accept_overlap" || resp.Strategies[1].Warning == "" {
			t.Fatalf("unexpected second strategy %+v", resp.Strategies[1])
		}
	})

	t.Run("chain validation is routed under schedules", func(t *testing.T) {
		t.Parallel()

		service := &fakeSchedulingService{
			chain: application.ChainValidation{
				Valid:    false,
				Offender: &scheduler.Reservation{ID: "res-2"},
			},
		}
		router := NewRouter(RouterConfig{Scheduling: NewSchedulingHandler(service, nil, nil)})

		req := httptest.NewRequest(http.MethodGet, "/schedules/sched-1/chain", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		var resp chainValidationResponse
		decodeBody(t, recorder, &resp)
		if resp.Valid || resp.Offender == nil || resp.Offender.ID != "res-2" {
			t.Fatalf("unexpected response %+v", resp)
		}
	})

	t.Run("calendar views require a date parameter", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Scheduling: NewSchedulingHandler(&fakeSchedulingService{}, &fakeCalendarService{}, nil)})

		req := httptest.NewRequest(http.MethodGet, "/calendar/daily", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", recorder.Code)
		}
	})

	t.Run("rejects unsupported methods", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Scheduling: NewSchedulingHandler(&fakeSchedulingService{}, nil, nil)})

		req := httptest.NewRequest(http.MethodGet, "/availability", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); allow != http.MethodPost {
			t.Fatalf("unexpected Allow header %q", allow)
		}
	})
}

type fakeCalendarService struct {
	day  application.DaySchedule
	week application.WeekSchedule
	err  error
}

func (f *fakeCalendarService) DailySchedule(ctx context.Context, userID string, date time.Time) (application.DaySchedule, error) {
	return f.day, f.err
}

func (f *fakeCalendarService) WeeklySchedule(ctx context.Context, userID string, weekStart time.Time) (application.WeekSchedule, error) {
	return f.week, f.err
}

func TestReservationHandlers(t *testing.T) {
	t.Parallel()

	t.Run("hard overlaps map to 409", func(t *testing.T) {
		t.Parallel()

		service := &fakeReservationService{err: application.ErrTimeConflict}
		router := NewRouter(RouterConfig{
			Reservations: NewReservationHandler(service, nil, nil),
			Middleware:   []func(http.Handler) http.Handler{withPrincipal(application.Principal{UserID: "user-1"})},
		})

		body := `{"schedule_id":"sched-1","title":"Demo","start":"2025-06-02T09:00:00Z","end":"2025-06-02T10:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", recorder.Code)
		}
		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.ErrorCode != "TIME_CONFLICT" {
			t.Fatalf("unexpected error code %q", resp.ErrorCode)
		}
	})

	t.Run("writes include advisory warnings", func(t *testing.T) {
		t.Parallel()

		building, room := "Science Hall", "101"
		service := &fakeReservationService{
			reservation: persistence.Reservation{
				ID:         "res-1",
				ScheduleID: "sched-1",
				Title:      "Demo",
				Start:      time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC),
				End:        time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC),
			},
			warnings: []application.ConflictWarning{{
				Type:              application.WarningFacilityConflict,
				WithReservationID: "res-9",
				ScheduleID:        "sched-2",
				Building:          &building,
				RoomNumber:        &room,
			}},
		}
		router := NewRouter(RouterConfig{
			Reservations: NewReservationHandler(service, nil, nil),
			Middleware:   []func(http.Handler) http.Handler{withPrincipal(application.Principal{UserID: "user-1"})},
		})

		body := `{"schedule_id":"sched-1","title":"Demo","start":"2025-06-02T09:00:00Z","end":"2025-06-02T10:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", recorder.Code)
		}
		var resp reservationResponse
		decodeBody(t, recorder, &resp)
		if resp.Reservation.ID != "res-1" {
			t.Fatalf("unexpected reservation %+v", resp.Reservation)
		}
		if len(resp.Warnings) != 1 || resp.Warnings[0].Type != "facility" || resp.Warnings[0].WithReservationID != "res-9" {
			t.Fatalf("unexpected warnings %+v", resp.Warnings)
		}
	})

	t.Run("malformed JSON maps to 400", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{
			Reservations: NewReservationHandler(&fakeReservationService{}, nil, nil),
		})

		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader("{not json"))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", recorder.Code)
		}
	})
}

type fakeAuthService struct {
	session persistence.Session
	user    persistence.User
	err     error
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (persistence.Session, persistence.User, error) {
	return f.session, f.user, f.err
}

func (f *fakeAuthService) Logout(ctx context.Context, token string) error {
	return f.err
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("login issues session token via cookie and header", func(t *testing.T) {
		t.Parallel()

		service := &fakeAuthService{
			session: persistence.Session{
				Token:     "token-1",
				ExpiresAt: time.Date(2025, time.June, 3, 8, 0, 0, 0, time.UTC),
			},
			user: persistence.User{ID: "user-1", IsAdmin: true},
		}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		body := `{"email":"alice@example.edu","password":"correct horse"}`
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", recorder.Code)
		}
		if recorder.Header().Get("X-Session-Token") != "token-1" {
			t.Fatal("expected the token in the X-Session-Token header")
		}
		found := false
		for _, cookie := range recorder.Result().Cookies() {
			if cookie.Name == "session_token" && cookie.Value == "token-1" {
				found = true
			}
		}
		if !found {
			t.Fatal("expected a session_token cookie")
		}
		var resp loginResponse
		decodeBody(t, recorder, &resp)
		if resp.Principal.UserID != "user-1" || !resp.Principal.IsAdmin {
			t.Fatalf("unexpected principal %+v", resp.Principal)
		}
	})

	t.Run("invalid credentials map to 401", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&fakeAuthService{err: application.ErrInvalidCredentials}, nil)})

		body := `{"email":"alice@example.edu","password":"wrong"}`
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", recorder.Code)
		}
		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("unexpected error code %q", resp.ErrorCode)
		}
	})

	t.Run("logout clears the session cookie", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&fakeAuthService{}, nil)})

		req := httptest.NewRequest(http.MethodDelete, "/sessions/current", nil)
		req.Header.Set("Authorization", "Bearer token-1")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", recorder.Code)
		}
		cleared := false
		for _, cookie := range recorder.Result().Cookies() {
			if cookie.Name == "session_token" && cookie.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Fatal("expected the session cookie to be cleared")
		}
	})
}
