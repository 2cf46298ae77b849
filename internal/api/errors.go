package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
	"github.com/nssuwan186-dev/fullstack-platform/internal/artifact"
	"github.com/nssuwan186-dev/fullstack-platform/internal/domain"
	"github.com/nssuwan186-dev/fullstack-platform/internal/service"
	"github.com/nssuwan186-dev/fullstack-platform/internal/service/auth"
	"github.com/nssuwan186-dev/fullstack-platform/internal/store"
	"github.com/nssuwan186-dev/fullstack-platform/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the error itself.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	var fieldErr *domain.ValidationError
	var maxErr *http.MaxBytesError

	switch {
	case err == nil:
		return http.StatusOK

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrJobNotFound),
		errors.Is(err, artifact.ErrNotFound):
		return http.StatusNotFound

	// Duplicate registration is a client error, not a conflict
	case errors.Is(err, store.ErrEmailExists):
		return http.StatusBadRequest

	// Validation errors
	case errors.As(err, &verrs),
		errors.As(err, &fieldErr),
		isDomainValidationError(err),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusUnprocessableEntity

	case errors.As(err, &maxErr),
		errors.Is(err, service.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge

	// Background runner saturated or shutting down
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Incorrect email or password"

	case errors.Is(err, service.ErrUserInactive):
		return "Inactive user"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Not authenticated"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, artifact.ErrNotFound):
		return "File not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already registered"

	case errors.Is(err, service.ErrBatchTooLarge):
		return "Too many records in request"

	case MapErrorToStatusCode(err) == http.StatusRequestEntityTooLarge:
		return "Request body too large"

	case MapErrorToStatusCode(err) == http.StatusUnprocessableEntity:
		return shared.ValidationErrorMessage

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Service is busy, try again later"

	default:
		return "Internal server error"
	}
}

// HandleAPIError writes the response for err. Validation failures become a
// 422 listing the offending fields; everything else uses the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusUnprocessableEntity {
		shared.RespondWithValidationError(w, r, validationDetails(err)...)
		return
	}
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}

func isDomainValidationError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrEmptyEmail) ||
		errors.Is(err, domain.ErrEmptyPassword) ||
		errors.Is(err, domain.ErrPasswordTooShort) ||
		errors.Is(err, domain.ErrPasswordTooLong)
}

func validationDetails(err error) []shared.FieldError {
	if details := shared.FieldErrors(err); details != nil {
		return details
	}

	var fieldErr *domain.ValidationError
	if errors.As(err, &fieldErr) {
		return []shared.FieldError{{Field: fieldErr.Field, Message: fieldErr.Message}}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		return []shared.FieldError{{Field: "email", Message: "value is not a valid email address"}}
	case errors.Is(err, domain.ErrEmptyEmail):
		return []shared.FieldError{{Field: "email", Message: "field required"}}
	case errors.Is(err, domain.ErrEmptyPassword),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong):
		return []shared.FieldError{{Field: "password", Message: innermost(err).Error()}}
	default:
		return []shared.FieldError{{Field: "body", Message: "invalid request"}}
	}
}

func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
