package middlewarectx_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/collab-deals/internal/config"
	"github.com/magabrotheeeer/collab-deals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

type AuthenticatorMock struct {
	mock.Mock
}

func (m *AuthenticatorMock) Authenticate(ctx context.Context, token string) (models.Principal, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.Principal), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJWTMiddleware(t *testing.T) {
	principal := models.Principal{UserID: 7, Role: models.RoleCreator, HasSubscription: true}

	tests := []struct {
		name           string
		authHeader     string
		mockErr        error
		callAuth       bool
		wantStatusCode int
		wantKind       string
		wantCalled     bool
	}{
		{
			name:           "missing header",
			wantStatusCode: http.StatusUnauthorized,
			wantKind:       "unauthorized",
		},
		{
			name:           "basic scheme",
			authHeader:     "Basic abc",
			wantStatusCode: http.StatusUnauthorized,
			wantKind:       "unauthorized",
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer bad",
			callAuth:       true,
			mockErr:        apperr.Unauthorized("invalid or expired token"),
			wantStatusCode: http.StatusUnauthorized,
			wantKind:       "unauthorized",
		},
		{
			name:           "storage failure",
			authHeader:     "Bearer bad",
			callAuth:       true,
			mockErr:        errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
			wantKind:       "internal",
		},
		{
			name:           "valid token",
			authHeader:     "Bearer good",
			callAuth:       true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthenticatorMock)
			if tt.callAuth {
				token := tt.authHeader[len("Bearer "):]
				authMock.On("Authenticate", mock.Anything, token).Return(principal, tt.mockErr).Once()
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				p, ok := middlewarectx.PrincipalFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, principal, p)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantKind != "" {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
				assert.Equal(t, "Error", body["status"])
				assert.Equal(t, tt.wantKind, body["kind"])
			}
			authMock.AssertExpectations(t)
		})
	}
}

func TestPrincipalFrom_Empty(t *testing.T) {
	_, ok := middlewarectx.PrincipalFrom(context.Background())
	assert.False(t, ok)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewClientLimiter(config.RateLimit{RPS: 0.001, Burst: 2})
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger(), limiter)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001").Code)
	limited := do("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000").Code, "other clients have their own bucket")
}

func TestClientLimiter_Refills(t *testing.T) {
	limiter := middlewarectx.NewClientLimiter(config.RateLimit{RPS: 1, Burst: 1})
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	time.Sleep(1100 * time.Millisecond)
	assert.True(t, limiter.Allow("a"))
}
