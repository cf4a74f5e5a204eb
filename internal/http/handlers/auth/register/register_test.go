package register

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

func (m *ServiceMock) Signup(ctx context.Context, req models.SignupRequest) (*models.UserProjection, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*models.UserProjection)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := models.SignupRequest{Name: "Kit", Email: "kit@creator.io", Password: "secret1", Role: models.RoleCreator}

	tests := []struct {
		name           string
		body           any
		mockErr        error
		callService    bool
		wantStatusCode int
		wantKind       string
	}{
		{
			name:           "creator registered",
			body:           valid,
			callService:    true,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "bad role",
			body:           models.SignupRequest{Name: "Kit", Email: "kit@creator.io", Password: "secret1", Role: "admin"},
			wantStatusCode: http.StatusBadRequest,
			wantKind:       "validation",
		},
		{
			name:           "bad email",
			body:           models.SignupRequest{Name: "Kit", Email: "kit", Password: "secret1", Role: models.RoleCreator},
			wantStatusCode: http.StatusBadRequest,
			wantKind:       "validation",
		},
		{
			name:           "email taken",
			body:           valid,
			callService:    true,
			mockErr:        apperr.Conflict("email already registered"),
			wantStatusCode: http.StatusConflict,
			wantKind:       "conflict",
		},
		{
			name:           "broken json",
			body:           "{",
			wantStatusCode: http.StatusBadRequest,
			wantKind:       "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				if tt.mockErr != nil {
					svc.On("Signup", mock.Anything, valid).Return(nil, tt.mockErr).Once()
				} else {
					svc.On("Signup", mock.Anything, valid).
						Return(&models.UserProjection{ID: 5, Name: "Kit", Email: "kit@creator.io", Role: models.RoleCreator}, nil).Once()
				}
			}

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, got["kind"])
			} else {
				data := got["data"].(map[string]any)
				assert.Equal(t, true, data["success"])
				assert.Equal(t, float64(5), data["user"].(map[string]any)["id"])
			}
			svc.AssertExpectations(t)
		})
	}
}
