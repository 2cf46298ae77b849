package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/domain"
)

// Search paging bounds.
const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 1000
)

// UserFilter narrows a user search. A nil IsActive matches both states; an
// empty Query matches every email.
type UserFilter struct {
	Query    string
	IsActive *bool
	Skip     int
	Limit    int
}

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// It handles domain validation and password hashing internally.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Search returns users matching filter ordered by creation time.
	Search(ctx context.Context, filter UserFilter) ([]*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
