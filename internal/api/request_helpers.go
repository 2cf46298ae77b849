package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
	"github.com/nssuwan186-dev/fullstack-platform/internal/domain"
	"github.com/nssuwan186-dev/fullstack-platform/internal/store"
)

// getPathUUID parses the chi path parameter paramName as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "field required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "value is not a valid uuid", domain.ErrInvalidID)
	}

	return id, nil
}

// parseBool accepts the usual spellings of a boolean query value.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", value)
	}
}

// parseUserFilter reads q, is_active, skip and limit from the query string.
// Every invalid parameter is reported.
func parseUserFilter(r *http.Request) (store.UserFilter, []shared.FieldError) {
	query := r.URL.Query()
	filter := store.UserFilter{
		Query: query.Get("q"),
		Limit: store.DefaultSearchLimit,
	}
	var details []shared.FieldError

	if raw := query.Get("is_active"); raw != "" {
		active, err := parseBool(raw)
		if err != nil {
			details = append(details, shared.FieldError{
				Field:   "is_active",
				Message: "value could not be parsed to a boolean",
			})
		} else {
			filter.IsActive = &active
		}
	}

	if raw := query.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			details = append(details, shared.FieldError{
				Field:   "skip",
				Message: "value is not a valid integer",
			})
		case skip < 0:
			details = append(details, shared.FieldError{
				Field:   "skip",
				Message: "must be greater than or equal to 0",
			})
		default:
			filter.Skip = skip
		}
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			details = append(details, shared.FieldError{
				Field:   "limit",
				Message: "value is not a valid integer",
			})
		case limit < 1 || limit > store.MaxSearchLimit:
			details = append(details, shared.FieldError{
				Field:   "limit",
				Message: fmt.Sprintf("must be between 1 and %d", store.MaxSearchLimit),
			})
		default:
			filter.Limit = limit
		}
	}

	return filter, details
}
