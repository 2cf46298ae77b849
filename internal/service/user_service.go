package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/domain"
	"github.com/nssuwan186-dev/fullstack-platform/internal/service/auth"
	"github.com/nssuwan186-dev/fullstack-platform/internal/store"
)

// UserService provides user registration, lookup and authentication.
type UserService interface {
	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// CreateUser registers a new user. Returns store.ErrEmailExists when the
	// address is already registered.
	CreateUser(ctx context.Context, email, password string) (*domain.User, error)

	// SearchUsers lists users matching filter.
	SearchUsers(ctx context.Context, filter store.UserFilter) ([]*domain.User, error)

	// Authenticate checks email and password and returns the matching active user.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	db        store.TxBeginner
	verifier  auth.PasswordVerifier
	logger    *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	db store.TxBeginner,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore: userStore,
		db:        db,
		verifier:  verifier,
		logger:    logger.With("component", "user_service"),
	}
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// CreateUser validates the input, checks that the email is free and inserts
// the user inside a single transaction. The unique index on users.email
// backs up the pre-read under concurrent registrations.
func (s *UserServiceImpl) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		_, err := txStore.GetByEmail(ctx, user.Email)
		switch {
		case err == nil:
			return store.ErrEmailExists
		case !store.IsNotFoundError(err):
			return err
		}

		return txStore.Create(ctx, user)
	})

	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to create user with existing email",
				"email", user.Email)
		} else {
			s.logger.Error("failed to save user to database",
				"error", err,
				"email", user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		"user_id", user.ID)

	return user, nil
}

// SearchUsers lists users matching filter.
func (s *UserServiceImpl) SearchUsers(ctx context.Context, filter store.UserFilter) ([]*domain.User, error) {
	users, err := s.userStore.Search(ctx, filter)
	if err != nil {
		s.logger.Error("failed to search users", "error", err)
		return nil, NewServiceError("user", "search", err)
	}
	return users, nil
}

// Authenticate returns the active user identified by email and password.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to load user for authentication", "error", err)
		return nil, NewServiceError("user", "authenticate", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}
