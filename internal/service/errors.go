package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the services. Callers check them with errors.Is;
// the API layer maps each one to a status code.
var (
	// ErrInvalidCredentials is returned by Authenticate when the email is
	// unknown or the password does not match. The two cases are not
	// distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserInactive is returned by Authenticate for deactivated accounts.
	ErrUserInactive = errors.New("user is inactive")

	// ErrBatchTooLarge is returned when a submission holds more records than
	// the configured maximum.
	ErrBatchTooLarge = errors.New("batch exceeds maximum record count")
)

// ServiceError adds the service and operation to an unexpected error while
// keeping it reachable through errors.Is and errors.As.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// NewServiceError creates a ServiceError.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, Err: err}
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service: %s failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
