package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

func ptr(v int64) *int64 { return &v }

var (
	brand      = models.Principal{UserID: 1, Role: models.RoleBrand}
	otherBrand = models.Principal{UserID: 2, Role: models.RoleBrand}
	creator    = models.Principal{UserID: 3, Role: models.RoleCreator}
	stranger   = models.Principal{UserID: 4, Role: models.RoleCreator}
)

func TestCanCreateDeal(t *testing.T) {
	assert.NoError(t, CanCreateDeal(brand))
	assert.True(t, errors.Is(CanCreateDeal(creator), apperr.ErrForbidden))
}

func TestCanAcceptDeal(t *testing.T) {
	assert.NoError(t, CanAcceptDeal(creator))
	assert.True(t, errors.Is(CanAcceptDeal(brand), apperr.ErrForbidden))
}

func TestCanPayForDeal(t *testing.T) {
	accepted := &models.Deal{ID: 10, BrandID: 1, CreatorID: ptr(3), Status: models.DealAccepted}
	open := &models.Deal{ID: 11, BrandID: 1, Status: models.DealOpen}
	paid := &models.Deal{ID: 12, BrandID: 1, CreatorID: ptr(3), Status: models.DealPaid}

	tests := []struct {
		name string
		p    models.Principal
		deal *models.Deal
		want error
	}{
		{"owner pays accepted deal", brand, accepted, nil},
		{"other brand", otherBrand, accepted, apperr.ErrForbidden},
		{"creator", creator, accepted, apperr.ErrForbidden},
		{"open deal", brand, open, apperr.ErrConflict},
		{"already paid", brand, paid, apperr.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanPayForDeal(tt.p, tt.deal)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCanCompleteDeal(t *testing.T) {
	d := &models.Deal{ID: 10, BrandID: 1, CreatorID: ptr(3), Status: models.DealPaid}
	assert.NoError(t, CanCompleteDeal(brand, d))
	assert.True(t, errors.Is(CanCompleteDeal(otherBrand, d), apperr.ErrForbidden))
	assert.True(t, errors.Is(CanCompleteDeal(creator, d), apperr.ErrForbidden))
}

func TestCanSearch(t *testing.T) {
	err := CanSearch(creator)
	assert.True(t, errors.Is(err, apperr.ErrSubscriptionRequired))
	assert.False(t, errors.Is(err, apperr.ErrForbidden))

	subscribed := creator
	subscribed.HasSubscription = true
	assert.NoError(t, CanSearch(subscribed))
}

func TestCanAccessMessages(t *testing.T) {
	claimed := &models.Deal{ID: 10, BrandID: 1, CreatorID: ptr(3)}
	open := &models.Deal{ID: 11, BrandID: 1}

	assert.NoError(t, CanAccessMessages(brand, claimed))
	assert.NoError(t, CanAccessMessages(creator, claimed))
	assert.True(t, errors.Is(CanAccessMessages(stranger, claimed), apperr.ErrForbidden))
	assert.True(t, errors.Is(CanAccessMessages(otherBrand, claimed), apperr.ErrForbidden))

	assert.NoError(t, CanAccessMessages(brand, open))
	assert.True(t, errors.Is(CanAccessMessages(creator, open), apperr.ErrForbidden))
}

func TestCanSubscribe(t *testing.T) {
	assert.NoError(t, CanSubscribe(nil))
	assert.NoError(t, CanSubscribe(&models.Subscription{Active: false}))
	assert.True(t, errors.Is(CanSubscribe(&models.Subscription{Active: true}), apperr.ErrConflict))
}
