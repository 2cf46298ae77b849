package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
}

func requestAs(userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/process/excel", nil)
	return req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))
}

func TestRateLimiter_PerUser(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	handler := limiter.Limit(okHandler())

	alice, bob := uuid.New(), uuid.New()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs(alice))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(bob))
	assert.Equal(t, http.StatusAccepted, w.Code, "limits are per user")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(alice))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	clock = clock.Add(time.Second)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(alice))
	assert.Equal(t, http.StatusAccepted, w.Code, "token refilled")
}

func TestRateLimiter_Disabled(t *testing.T) {
	handler := NewRateLimiter(0, 1).Limit(okHandler())
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs(uuid.New()))
		assert.Equal(t, http.StatusAccepted, w.Code)
	}
}

func TestRateLimiter_EvictsIdleCallers(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	handler := limiter.Limit(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestAs(uuid.New()))
	assert.Len(t, limiter.limiters, 1)

	clock = clock.Add(2 * limiterIdleTTL)
	handler.ServeHTTP(httptest.NewRecorder(), requestAs(uuid.New()))
	assert.Len(t, limiter.limiters, 1)
}
