package list

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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/collab-deals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListDeals(ctx context.Context, p models.Principal) ([]models.DealView, error) {
	args := m.Called(ctx, p)
	deals, _ := args.Get(0).([]models.DealView)
	return deals, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListHandler(t *testing.T) {
	principal := models.Principal{UserID: 2, Role: models.RoleCreator}
	deals := []models.DealView{
		{Deal: models.Deal{ID: 2, BrandID: 1, Title: "Story", Amount: decimal.RequireFromString("120.50"), Status: models.DealOpen}},
		{Deal: models.Deal{ID: 1, BrandID: 1, Title: "Unboxing", Amount: decimal.NewFromInt(500), Status: models.DealPaid}},
	}

	tests := []struct {
		name           string
		withPrincipal  bool
		mockDeals      []models.DealView
		mockErr        error
		wantStatusCode int
		wantCount      int
	}{
		{name: "lists deals", withPrincipal: true, mockDeals: deals, wantStatusCode: http.StatusOK, wantCount: 2},
		{name: "no principal", wantStatusCode: http.StatusUnauthorized},
		{name: "storage error", withPrincipal: true, mockErr: errors.New("db down"), wantStatusCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.withPrincipal {
				svc.On("ListDeals", mock.Anything, principal).Return(tt.mockDeals, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.withPrincipal {
				ctx = middlewarectx.WithPrincipal(ctx, principal)
			}
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantStatusCode == http.StatusOK {
				var got struct {
					Status string             `json:"status"`
					Data   []models.DealView `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, "OK", got.Status)
				require.Len(t, got.Data, tt.wantCount)
				assert.True(t, got.Data[0].Amount.Equal(decimal.RequireFromString("120.5")))
			}
			svc.AssertExpectations(t)
		})
	}
}
