package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/domain"
	"github.com/nssuwan186-dev/fullstack-platform/internal/service/auth"
	"github.com/nssuwan186-dev/fullstack-platform/internal/store"
	"github.com/stretchr/testify/assert"
)

type stubJWTService struct {
	claims *auth.Claims
	err    error
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	return "token", time.Now().Add(time.Hour), nil
}

func (s *stubJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return s.claims, s.err
}

type stubUserGetter struct {
	user *domain.User
	err  error
}

func (s *stubUserGetter) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.user, s.err
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	active := &stubUserGetter{user: &domain.User{ID: userID, IsActive: true}}

	tests := []struct {
		name       string
		header     string
		jwt        *stubJWTService
		users      *stubUserGetter
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token",
			header:     "Bearer good",
			jwt:        &stubJWTService{claims: &auth.Claims{UserID: userID}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "lowercase scheme",
			header:     "bearer good",
			jwt:        &stubJWTService{claims: &auth.Claims{UserID: userID}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			jwt:        &stubJWTService{},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Not authenticated",
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			jwt:        &stubJWTService{},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid authorization format",
		},
		{
			name:       "expired token",
			header:     "Bearer old",
			jwt:        &stubJWTService{err: auth.ErrExpiredToken},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Token expired",
		},
		{
			name:       "invalid token",
			header:     "Bearer bad",
			jwt:        &stubJWTService{err: auth.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid token",
		},
		{
			name:       "unexpected validation failure",
			header:     "Bearer bad",
			jwt:        &stubJWTService{err: errors.New("key store offline")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Authentication error",
		},
		{
			name:       "user deleted after issue",
			header:     "Bearer good",
			jwt:        &stubJWTService{claims: &auth.Claims{UserID: userID}},
			users:      &stubUserGetter{err: store.ErrUserNotFound},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid token",
		},
		{
			name:       "user deactivated after issue",
			header:     "Bearer good",
			jwt:        &stubJWTService{claims: &auth.Claims{UserID: userID}},
			users:      &stubUserGetter{user: &domain.User{ID: userID, IsActive: false}},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Inactive user",
		},
		{
			name:       "user lookup failure",
			header:     "Bearer good",
			jwt:        &stubJWTService{claims: &auth.Claims{UserID: userID}},
			users:      &stubUserGetter{err: errors.New("key store connection reset")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Authentication error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = GetUserID(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/process/excel", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			users := tt.users
			if users == nil {
				users = active
			}

			NewAuthMiddleware(tt.jwt, users).Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, gotUser)
				return
			}
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "key store")
		})
	}
}
