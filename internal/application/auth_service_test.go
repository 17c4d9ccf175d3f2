package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/testfixtures"
)

type authHarness struct {
	*testfixtures.SQLiteHarness
	service *application.AuthService
	clock   *testfixtures.Clock
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()

	db := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("sess")
	tokens := testfixtures.NewIDGenerator("token")

	service := application.NewAuthService(
		db.Users,
		db.Sessions,
		time.Hour,
		ids.NextFunc(),
		tokens.NextFunc(),
		clock.NowFunc(),
		nil,
	)
	return &authHarness{SQLiteHarness: db, service: service, clock: clock}
}

func (h *authHarness) seedAccount(t *testing.T, password string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := testfixtures.NewUser(testfixtures.WithUserPasswordHash(string(hash)))
	if err := h.Users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
}

func TestAuthServiceLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("opens a session for valid credentials", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		h.seedAccount(t, "correct horse")

		session, user, err := h.service.Login(ctx, "alice@example.edu", "correct horse")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if user.ID != "user-1" {
			t.Fatalf("login resolved user %q, want user-1", user.ID)
		}
		if session.Token == "" {
			t.Fatal("expected a session token")
		}
		if !session.ExpiresAt.Equal(h.clock.Now().Add(time.Hour)) {
			t.Fatalf("unexpected expiry %v", session.ExpiresAt)
		}
	})

	t.Run("normalises the email", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		h.seedAccount(t, "correct horse")

		if _, _, err := h.service.Login(ctx, "  ALICE@example.edu ", "correct horse"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
	})

	t.Run("rejects a wrong password and an unknown email alike", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		h.seedAccount(t, "correct horse")

		_, _, err := h.service.Login(ctx, "alice@example.edu", "wrong")
		if !errors.Is(err, application.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		_, _, err = h.service.Login(ctx, "nobody@example.edu", "correct horse")
		if !errors.Is(err, application.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthServiceValidateSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("resolves a live session to its principal", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		h.seedAccount(t, "correct horse")

		session, _, err := h.service.Login(ctx, "alice@example.edu", "correct horse")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}

		principal, err := h.service.ValidateSession(ctx, session.Token)
		if err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		if principal.UserID != "user-1" || principal.IsAdmin {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("rejects expired sessions", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		h.seedAccount(t, "correct horse")

		session, _, err := h.service.Login(ctx, "alice@example.edu", "correct horse")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}

		h.clock.Advance(2 * time.Hour)
		if _, err := h.service.ValidateSession(ctx, session.Token); !errors.Is(err, application.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid, got %v", err)
		}
	})

	t.Run("rejects revoked and unknown tokens", func(t *testing.T) {
		t.Parallel()
		h := newAuthHarness(t)
		h.seedAccount(t, "correct horse")

		session, _, err := h.service.Login(ctx, "alice@example.edu", "correct horse")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if err := h.service.Logout(ctx, session.Token); err != nil {
			t.Fatalf("logout failed: %v", err)
		}

		if _, err := h.service.ValidateSession(ctx, session.Token); !errors.Is(err, application.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid after logout, got %v", err)
		}
		if _, err := h.service.ValidateSession(ctx, "unknown"); !errors.Is(err, application.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid for unknown token, got %v", err)
		}
	})
}

func TestAuthServiceLogoutUnknownToken(t *testing.T) {
	t.Parallel()

	h := newAuthHarness(t)
	if err := h.service.Logout(context.Background(), "unknown"); err != nil {
		t.Fatalf("logout of an unknown token should be a no-op, got %v", err)
	}
}

func TestAuthServicePurgeExpiredSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newAuthHarness(t)
	h.seedAccount(t, "correct horse")

	session, _, err := h.service.Login(ctx, "alice@example.edu", "correct horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	h.clock.Advance(2 * time.Hour)
	if err := h.service.PurgeExpiredSessions(ctx); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if _, err := h.Sessions.GetSession(ctx, session.Token); err == nil {
		t.Fatal("expected the expired session to be gone")
	}
}
