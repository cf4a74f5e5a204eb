package subscriptionstatus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/collab-deals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SubscriptionStatus(ctx context.Context, p models.Principal) (*models.SubscriptionStatus, error) {
	args := m.Called(ctx, p)
	status, _ := args.Get(0).(*models.SubscriptionStatus)
	return status, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, svc *MockService, p models.Principal) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/subscription/status", nil)
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
	ctx = middlewarectx.WithPrincipal(ctx, p)
	rec := httptest.NewRecorder()

	New(newNoopLogger(), svc).ServeHTTP(rec, req.WithContext(ctx))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return rec, got
}

func TestSubscriptionStatusHandler_Active(t *testing.T) {
	p := models.Principal{UserID: 3, Role: models.RoleBrand}
	svc := new(MockService)
	svc.On("SubscriptionStatus", mock.Anything, p).Return(&models.SubscriptionStatus{
		Active:       true,
		Subscription: &models.Subscription{ID: 1, UserID: 3, Active: true},
	}, nil).Once()

	rec, got := serve(t, svc, p)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, got["data"].(map[string]any)["active"])
	svc.AssertExpectations(t)
}

func TestSubscriptionStatusHandler_Inactive(t *testing.T) {
	p := models.Principal{UserID: 4, Role: models.RoleCreator}
	svc := new(MockService)
	svc.On("SubscriptionStatus", mock.Anything, p).Return(&models.SubscriptionStatus{}, nil).Once()

	rec, got := serve(t, svc, p)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := got["data"].(map[string]any)
	assert.Equal(t, false, data["active"])
	assert.Nil(t, data["subscription"])
}

func TestSubscriptionStatusHandler_InternalError(t *testing.T) {
	p := models.Principal{UserID: 4, Role: models.RoleCreator}
	svc := new(MockService)
	svc.On("SubscriptionStatus", mock.Anything, p).Return(nil, errors.New("db down")).Once()

	rec, got := serve(t, svc, p)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", got["error"])
}
