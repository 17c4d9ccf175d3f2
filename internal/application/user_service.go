package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/campus-scheduler/internal/persistence"
)

const minPasswordLength = 8

// UserInput carries the caller-supplied user fields.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// CreateUserParams bundles a user create request.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams bundles a user update request. An empty password leaves
// the current password unchanged.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserService manages accounts. Creating, updating, and deleting users is
// admin-only; users may read their own record.
type UserService struct {
	users       persistence.UserRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateUser registers a new account. Only admins may create users.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (persistence.User, error) {
	if !params.Principal.IsAdmin {
		return persistence.User{}, ErrUnauthorized
	}

	input := normalizeUserInput(params.Input)
	if vErr := validateUserInput(input, true); vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return persistence.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Email:        input.Email,
		DisplayName:  input.DisplayName,
		PasswordHash: string(hash),
		IsAdmin:      input.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			vErr := &ValidationError{}
			vErr.add("email", "email is already registered")
			return persistence.User{}, vErr
		}
		return persistence.User{}, err
	}
	return user, nil
}

// UpdateUser changes an existing account. Only admins may update users.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (persistence.User, error) {
	if !params.Principal.IsAdmin {
		return persistence.User{}, ErrUnauthorized
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}

	input := normalizeUserInput(params.Input)
	if vErr := validateUserInput(input, input.Password != ""); vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	updated := existing
	updated.Email = input.Email
	updated.DisplayName = input.DisplayName
	updated.IsAdmin = input.IsAdmin
	updated.UpdatedAt = s.now()
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return persistence.User{}, fmt.Errorf("hash password: %w", err)
		}
		updated.PasswordHash = string(hash)
	}

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		switch {
		case errors.Is(err, persistence.ErrDuplicate):
			vErr := &ValidationError{}
			vErr.add("email", "email is already registered")
			return persistence.User{}, vErr
		case errors.Is(err, persistence.ErrNotFound):
			return persistence.User{}, ErrNotFound
		default:
			return persistence.User{}, err
		}
	}
	return updated, nil
}

// GetUser returns one account. Admins may read anyone; others only
// themselves.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (persistence.User, error) {
	if !principal.IsAdmin && principal.UserID != userID {
		return persistence.User{}, ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}
	return user, nil
}

// ListUsers returns every account. Admin-only.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	return s.users.ListUsers(ctx)
}

// DeleteUser removes an account. Admin-only; admins cannot delete
// themselves.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if principal.UserID == userID {
		vErr := &ValidationError{}
		vErr.add("user_id", "cannot delete your own account")
		return vErr
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	return input
}

func validateUserInput(input UserInput, passwordRequired bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is not a valid address")
	}
	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}
	if passwordRequired && len(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	return vErr
}
