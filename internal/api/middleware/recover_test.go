package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverer(t *testing.T) {
	var logs bytes.Buffer
	handler := NewTraceMiddleware(slog.New(slog.NewJSONHandler(&logs, nil)))(
		Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("secret internal state")
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() { handler.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"error":"Internal server error"`)
	assert.NotContains(t, w.Body.String(), "secret")

	traceID := w.Header().Get("X-Trace-ID")
	assert.NotEmpty(t, traceID)
	assert.Contains(t, logs.String(), `"msg":"panic recovered"`)
	assert.Contains(t, logs.String(), `"panic":"secret internal state"`)
	assert.Contains(t, logs.String(), `"trace_id":"`+traceID+`"`)
	assert.Equal(t, 1, strings.Count(logs.String(), `"trace_id":`), "one log line, one trace_id")
	assert.Contains(t, logs.String(), `"stack":"goroutine`)
}

func TestRecoverer_AbortHandlerPropagates(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
	})
}
