package api

import (
	"log/slog"
	"net/http"

	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
	"github.com/nssuwan186-dev/fullstack-platform/internal/service"
)

// UserHandler serves user registration and search.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With("component", "user_handler"),
	}
}

// CreateUser handles POST /api/v1/users/.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		if shared.IsBodyTooLarge(err) {
			HandleAPIError(w, r, err)
			return
		}
		shared.RespondWithValidationError(w, r, shared.FieldError{Field: "body", Message: "invalid JSON"})
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, newUserResponse(user))
}

// SearchUsers handles GET /api/v1/users/search.
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	filter, details := parseUserFilter(r)
	if len(details) > 0 {
		shared.RespondWithValidationError(w, r, details...)
		return
	}

	users, err := h.users.SearchUsers(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, newUserResponse(u))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
