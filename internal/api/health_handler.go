package api

import (
	"net/http"

	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
)

// Health reports liveness. It never touches the database.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{
		Status:       "online",
		ParallelMode: "enabled",
	})
}

// Welcome answers the root endpoints.
func Welcome(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, WelcomeResponse{
		Message: "Welcome to FullStack Platform API",
		Status:  "running",
	})
}
