package mine

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/collab-deals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) MyDeals(ctx context.Context, p models.Principal) ([]models.DealView, error) {
	args := m.Called(ctx, p)
	deals, _ := args.Get(0).([]models.DealView)
	return deals, args.Error(1)
}

func TestMineHandler(t *testing.T) {
	principal := models.Principal{UserID: 1, Role: models.RoleBrand}
	svc := new(MockService)
	svc.On("MyDeals", mock.Anything, principal).
		Return([]models.DealView{{Deal: models.Deal{ID: 4, BrandID: 1}}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/deals/mine", nil)
	req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), principal))
	rec := httptest.NewRecorder()

	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"brandId":1`)
	svc.AssertExpectations(t)
}
