package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, req models.LoginRequest) (string, *models.UserProjection, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(1).(*models.UserProjection)
	return args.String(0), user, args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	user := &models.UserProjection{ID: 1, Name: "Acme", Email: "acme@brand.io", Role: models.RoleBrand}

	tests := []struct {
		name           string
		body           string
		mockReq        *models.LoginRequest
		mockToken      string
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "valid login",
			body:           `{"email":"acme@brand.io","password":"secret1"}`,
			mockReq:        &models.LoginRequest{Email: "acme@brand.io", Password: "secret1"},
			mockToken:      "tok",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid json body",
			body:           "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "missing password",
			body:           `{"email":"acme@brand.io"}`,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password is a required field",
		},
		{
			name:           "wrong password",
			body:           `{"email":"acme@brand.io","password":"nope"}`,
			mockReq:        &models.LoginRequest{Email: "acme@brand.io", Password: "nope"},
			mockErr:        apperr.Unauthorized("invalid credentials"),
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockReq != nil {
				if tt.mockErr != nil {
					svc.On("Login", mock.Anything, *tt.mockReq).Return("", nil, tt.mockErr).Once()
				} else {
					svc.On("Login", mock.Anything, *tt.mockReq).Return(tt.mockToken, user, nil).Once()
				}
			}
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(tt.body)))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
				data := got["data"].(map[string]any)
				assert.Equal(t, "tok", data["token"])
				assert.Equal(t, "acme@brand.io", data["user"].(map[string]any)["email"])
				assert.NotContains(t, rec.Body.String(), "password")
			}
			svc.AssertExpectations(t)
		})
	}
}
