package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/campus-scheduler/internal/persistence"
)

// ErrInvalidCredentials is returned when login fails. The message never
// distinguishes an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("application: invalid credentials")

// ErrSessionInvalid is returned when a session token is unknown, expired,
// or revoked.
var ErrSessionInvalid = errors.New("application: session invalid")

// AuthService issues and validates opaque session tokens backed by the
// session store.
type AuthService struct {
	users          persistence.UserRepository
	sessions       persistence.SessionRepository
	sessionTTL     time.Duration
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService wires dependencies for the authentication service.
func NewAuthService(
	users persistence.UserRepository,
	sessions persistence.SessionRepository,
	sessionTTL time.Duration,
	idGenerator func() string,
	tokenGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		sessionTTL:     sessionTTL,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		logger:         logger,
	}
}

// Login verifies the credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (persistence.Session, persistence.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return persistence.Session{}, persistence.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Session{}, persistence.User{}, ErrInvalidCredentials
		}
		return persistence.Session{}, persistence.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return persistence.Session{}, persistence.User{}, ErrInvalidCredentials
	}

	now := s.now()
	session := persistence.Session{
		ID:        s.idGenerator(),
		UserID:    user.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		return persistence.Session{}, persistence.User{}, err
	}

	s.logger.InfoContext(ctx, "session opened", "user_id", user.ID, "session_id", created.ID)
	return created, user, nil
}

// ValidateSession resolves a token to its principal. Expired and revoked
// sessions are rejected.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrSessionInvalid
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrSessionInvalid
		}
		return Principal{}, err
	}
	if session.RevokedAt != nil || !s.now().Before(session.ExpiresAt) {
		return Principal{}, ErrSessionInvalid
	}

	user, err := s.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrSessionInvalid
		}
		return Principal{}, err
	}

	return Principal{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

// Logout revokes the session for the given token. Revoking an unknown token
// is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpiredSessions(ctx, s.now())
}
