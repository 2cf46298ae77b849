package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/domain"
	"github.com/nssuwan186-dev/fullstack-platform/internal/policy"
)

// Public URL prefixes embedded in intake responses.
const (
	FilesPathPrefix = "/files/"
	JobsPathPrefix  = "/process/jobs/"
)

// StatusResponse is the body of GET /health.
type StatusResponse struct {
	Status       string `json:"status"`
	ParallelMode string `json:"parallel_mode"`
}

// WelcomeResponse is the body of the root endpoints.
type WelcomeResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// CreateUserRequest defines the payload for user registration.
type CreateUserRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries a bearer token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ExportAcceptedResponse acknowledges a scheduled export.
type ExportAcceptedResponse struct {
	Message      string        `json:"message"`
	ExpectedFile string        `json:"expected_file"`
	DownloadURL  string        `json:"download_url"`
	JobID        uuid.UUID     `json:"job_id"`
	StatusURL    string        `json:"status_url"`
	Report       policy.Report `json:"report"`
}

// JobStatusResponse reports the progress of an export job.
type JobStatusResponse struct {
	JobID       uuid.UUID `json:"job_id"`
	Status      string    `json:"status"`
	FileName    string    `json:"file_name"`
	RecordCount int       `json:"record_count"`
	DownloadURL string    `json:"download_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
