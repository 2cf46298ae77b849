package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
	"github.com/nssuwan186-dev/fullstack-platform/internal/platform/logger"
)

// Recoverer turns a handler panic into a generic JSON 500. The panic value
// and stack go to the request logger, which carries the trace ID. It stands
// in for chi's middleware.Recoverer, which prints to stderr and answers with
// an empty body.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromContext(r.Context()).Error("panic recovered",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))

			shared.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
