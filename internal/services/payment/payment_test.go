package payment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/collab-deals/internal/cache"
	"github.com/magabrotheeeer/collab-deals/internal/config"
	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/models"
	"github.com/magabrotheeeer/collab-deals/internal/paymentprovider"
	"github.com/magabrotheeeer/collab-deals/internal/services/payment"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetDeal(ctx context.Context, id int64) (*models.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *RepoMock) GetDealView(ctx context.Context, id int64) (*models.DealView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DealView), args.Error(1)
}

func (m *RepoMock) MarkDealPaid(ctx context.Context, dealID int64) (*models.Deal, bool, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Deal), args.Bool(1), args.Error(2)
}

func (m *RepoMock) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) SetStripeCustomerID(ctx context.Context, userID int64, customerID string) (string, error) {
	args := m.Called(ctx, userID, customerID)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) ActivateSubscription(ctx context.Context, userID int64, customerID, subscriptionID string) (bool, error) {
	args := m.Called(ctx, userID, customerID, subscriptionID)
	return args.Bool(0), args.Error(1)
}

type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) CreateCustomer(ctx context.Context, email, name, idempotencyKey string) (string, error) {
	args := m.Called(ctx, email, name, idempotencyKey)
	return args.String(0), args.Error(1)
}

func (m *ProviderMock) CreateCheckoutSession(ctx context.Context, req paymentprovider.CheckoutRequest) (*paymentprovider.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.Session), args.Error(1)
}

func (m *ProviderMock) ParseWebhook(payload []byte, signature string) (*paymentprovider.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.WebhookEvent), args.Error(1)
}

type publisherStub struct {
	events []models.Event
}

func (p *publisherStub) Publish(_ context.Context, _ string, event any) error {
	p.events = append(p.events, event.(models.Event))
	return nil
}

type metricsStub struct {
	webhooks map[string]int
}

func (m *metricsStub) Checkout(string, string) {}

func (m *metricsStub) WebhookEvent(eventType, result string) {
	m.webhooks[eventType+":"+result]++
}

func (m *metricsStub) EventPublished(string, string) {}

type fixture struct {
	svc      *payment.Service
	repo     *RepoMock
	provider *ProviderMock
	cache    *cache.Cache
	events   *publisherStub
	metrics  *metricsStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{
		repo:     new(RepoMock),
		provider: new(ProviderMock),
		cache:    c,
		events:   &publisherStub{},
		metrics:  &metricsStub{webhooks: map[string]int{}},
	}
	f.svc = payment.New(newNoopLogger(), f.repo, f.provider, f.cache, f.events, f.metrics, config.Stripe{
		AppBaseURL:             "https://app.test",
		SubscriptionPriceCents: 800,
	})
	return f
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

var brand = models.Principal{UserID: 1, Role: models.RoleBrand}

func TestQuote(t *testing.T) {
	tests := []struct {
		amount    string
		wantFee   string
		wantTotal string
		feeCents  int64
	}{
		{amount: "500", wantFee: "45", wantTotal: "545", feeCents: 4500},
		{amount: "333.33", wantFee: "30", wantTotal: "363.33", feeCents: 3000},
		{amount: "0.05", wantFee: "0", wantTotal: "0.05", feeCents: 0},
		{amount: "19.99", wantFee: "1.8", wantTotal: "21.79", feeCents: 180},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			fee, total := payment.Quote(decimal.RequireFromString(tt.amount))
			assert.True(t, fee.Equal(decimal.RequireFromString(tt.wantFee)), "fee %s", fee)
			assert.True(t, total.Equal(decimal.RequireFromString(tt.wantTotal)), "total %s", total)
			assert.Equal(t, tt.feeCents, payment.ToCents(fee))
		})
	}
}

func TestCreateDealCheckout(t *testing.T) {
	accepted := &models.Deal{
		ID: 7, BrandID: 1, CreatorID: ptr[int64](2),
		Title: "Unboxing", Amount: decimal.NewFromInt(500), Status: models.DealAccepted,
	}

	t.Run("owner pays accepted deal", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetDeal", mock.Anything, int64(7)).Return(accepted, nil).Once()
		f.provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req paymentprovider.CheckoutRequest) bool {
			return req.Mode == paymentprovider.ModePayment &&
				len(req.LineItems) == 2 &&
				req.LineItems[0].UnitAmount == 50000 &&
				req.LineItems[1].UnitAmount == 4500 &&
				req.Metadata["dealId"] == "7" &&
				req.SuccessURL == "https://app.test/dashboard?payment=success" &&
				req.CancelURL == "https://app.test/deals/7?payment=cancelled"
		})).Return(&paymentprovider.Session{ID: "cs_1", URL: "https://pay.test/cs_1"}, nil).Once()

		session, err := f.svc.CreateDealCheckout(context.Background(), brand, 7)
		require.NoError(t, err)
		assert.Equal(t, "https://pay.test/cs_1", session.URL)
		f.provider.AssertExpectations(t)
	})

	t.Run("another brand is forbidden", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetDeal", mock.Anything, int64(7)).Return(accepted, nil).Once()

		other := models.Principal{UserID: 5, Role: models.RoleBrand}
		_, err := f.svc.CreateDealCheckout(context.Background(), other, 7)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		f.provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("open deal cannot be paid", func(t *testing.T) {
		f := newFixture(t)
		open := &models.Deal{ID: 7, BrandID: 1, Amount: decimal.NewFromInt(500), Status: models.DealOpen}
		f.repo.On("GetDeal", mock.Anything, int64(7)).Return(open, nil).Once()

		_, err := f.svc.CreateDealCheckout(context.Background(), brand, 7)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetDeal", mock.Anything, int64(7)).Return(accepted, nil).Once()
		f.provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(nil, errors.New("card_declined")).Once()

		_, err := f.svc.CreateDealCheckout(context.Background(), brand, 7)
		assert.Equal(t, apperr.KindPaymentProvider, apperr.KindOf(err))
	})
}

func TestCreateSubscriptionCheckout(t *testing.T) {
	creator := models.Principal{UserID: 2, Role: models.RoleCreator}

	t.Run("creates customer once", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetActiveSubscription", mock.Anything, int64(2)).Return(nil, nil).Once()
		f.repo.On("GetUser", mock.Anything, int64(2)).
			Return(&models.User{ID: 2, Name: "Kit", Email: "kit@creator.io", Role: models.RoleCreator}, nil).Once()
		f.provider.On("CreateCustomer", mock.Anything, "kit@creator.io", "Kit", "customer-user-2").
			Return("cus_new", nil).Once()
		f.repo.On("SetStripeCustomerID", mock.Anything, int64(2), "cus_new").Return("cus_new", nil).Once()
		f.provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req paymentprovider.CheckoutRequest) bool {
			return req.Mode == paymentprovider.ModeSubscription &&
				req.CustomerID == "cus_new" &&
				req.LineItems[0].UnitAmount == 800 &&
				req.LineItems[0].Interval == "month" &&
				req.LineItems[0].Name == payment.SubscriptionProductName &&
				req.Metadata["userId"] == "2"
		})).Return(&paymentprovider.Session{ID: "cs_2", URL: "https://pay.test/cs_2"}, nil).Once()

		session, err := f.svc.CreateSubscriptionCheckout(context.Background(), creator)
		require.NoError(t, err)
		assert.Equal(t, "cs_2", session.ID)
		f.repo.AssertExpectations(t)
		f.provider.AssertExpectations(t)
	})

	t.Run("reuses stored customer", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetActiveSubscription", mock.Anything, int64(2)).Return(nil, nil).Once()
		f.repo.On("GetUser", mock.Anything, int64(2)).
			Return(&models.User{ID: 2, Email: "kit@creator.io", StripeCustomerID: ptr("cus_old")}, nil).Once()
		f.provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req paymentprovider.CheckoutRequest) bool {
			return req.CustomerID == "cus_old"
		})).Return(&paymentprovider.Session{ID: "cs_3"}, nil).Once()

		_, err := f.svc.CreateSubscriptionCheckout(context.Background(), creator)
		require.NoError(t, err)
		f.provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already subscribed", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("GetActiveSubscription", mock.Anything, int64(2)).
			Return(&models.Subscription{ID: 1, UserID: 2, Active: true}, nil).Once()

		_, err := f.svc.CreateSubscriptionCheckout(context.Background(), creator)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})
}

func TestSubscriptionStatus(t *testing.T) {
	f := newFixture(t)
	sub := &models.Subscription{ID: 3, UserID: 2, Active: true, StartedAt: time.Now()}
	f.repo.On("GetActiveSubscription", mock.Anything, int64(2)).Return(sub, nil).Once()

	status, err := f.svc.SubscriptionStatus(context.Background(), models.Principal{UserID: 2, HasSubscription: true})
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, sub, status.Subscription)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	f := newFixture(t)
	f.provider.On("ParseWebhook", []byte("{}"), "bad").
		Return(nil, paymentprovider.ErrInvalidSignature).Once()

	err := f.svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	f.repo.AssertNotCalled(t, "ActivateSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_SubscriptionReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	event := &paymentprovider.WebhookEvent{
		ID:   "evt_1",
		Type: paymentprovider.EventCheckoutCompleted,
		Checkout: &paymentprovider.CompletedCheckout{
			Mode:           paymentprovider.ModeSubscription,
			Metadata:       map[string]string{"userId": "2"},
			CustomerID:     "cus_1",
			SubscriptionID: "sub_1",
		},
	}
	f.provider.On("ParseWebhook", mock.Anything, "sig").Return(event, nil)
	f.repo.On("ActivateSubscription", mock.Anything, int64(2), "cus_1", "sub_1").Return(true, nil).Once()
	f.repo.On("GetUser", mock.Anything, int64(2)).
		Return(&models.User{ID: 2, Name: "Kit", Email: "kit@creator.io", Role: models.RoleCreator}, nil).Once()

	require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte("payload"), "sig"))
	require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte("payload"), "sig"))

	f.repo.AssertNumberOfCalls(t, "ActivateSubscription", 1)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, models.EventSubscriptionActivated, f.events.events[0].Type)
	assert.Equal(t, "kit@creator.io", f.events.events[0].Recipient.Email)
	assert.Equal(t, 1, f.metrics.webhooks[paymentprovider.EventCheckoutCompleted+":duplicate"])
}

func TestHandleWebhook_DealPaid(t *testing.T) {
	tests := []struct {
		name       string
		status     models.DealStatus
		changed    bool
		wantEvents int
	}{
		{name: "first delivery marks deal paid", status: models.DealPaid, changed: true, wantEvents: 1},
		{name: "deal already paid", status: models.DealPaid, changed: false, wantEvents: 0},
		{name: "deal already completed", status: models.DealCompleted, changed: false, wantEvents: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			require.NoError(t, f.cache.Set(ctx, cache.DealKey(7), models.DealView{}, time.Minute))

			event := &paymentprovider.WebhookEvent{
				ID:   "evt_" + tt.name,
				Type: paymentprovider.EventCheckoutCompleted,
				Checkout: &paymentprovider.CompletedCheckout{
					Mode:     paymentprovider.ModePayment,
					Metadata: map[string]string{"dealId": "7"},
				},
			}
			f.provider.On("ParseWebhook", mock.Anything, "sig").Return(event, nil).Once()
			f.repo.On("MarkDealPaid", mock.Anything, int64(7)).
				Return(&models.Deal{ID: 7, Status: tt.status}, tt.changed, nil).Once()
			f.repo.On("GetDealView", mock.Anything, int64(7)).Return(&models.DealView{
				Deal:    models.Deal{ID: 7, Title: "Unboxing", Status: models.DealPaid},
				Creator: &models.UserProjection{ID: 2, Email: "kit@creator.io"},
			}, nil).Maybe()

			require.NoError(t, f.svc.HandleWebhook(ctx, []byte("payload"), "sig"))
			assert.Len(t, f.events.events, tt.wantEvents)
			assert.Equal(t, 1, f.metrics.webhooks[paymentprovider.EventCheckoutCompleted+":ok"])

			found, err := f.cache.Get(ctx, cache.DealKey(7), &models.DealView{})
			require.NoError(t, err)
			assert.Equal(t, !tt.changed, found)
		})
	}
}

func TestHandleWebhook_ProcessingErrorIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	event := &paymentprovider.WebhookEvent{
		ID:   "evt_err",
		Type: paymentprovider.EventCheckoutCompleted,
		Checkout: &paymentprovider.CompletedCheckout{
			Mode:     paymentprovider.ModePayment,
			Metadata: map[string]string{"dealId": "7"},
		},
	}
	f.provider.On("ParseWebhook", mock.Anything, "sig").Return(event, nil).Once()
	f.repo.On("MarkDealPaid", mock.Anything, int64(7)).
		Return(nil, false, apperr.Conflict("deal has no creator yet")).Once()

	require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte("payload"), "sig"))
	assert.Empty(t, f.events.events)
	assert.Equal(t, 1, f.metrics.webhooks[paymentprovider.EventCheckoutCompleted+":error"])
}

func TestHandleWebhook_OtherEventsIgnored(t *testing.T) {
	f := newFixture(t)
	f.provider.On("ParseWebhook", mock.Anything, "sig").
		Return(&paymentprovider.WebhookEvent{ID: "evt_x", Type: "invoice.paid"}, nil).Once()

	require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte("payload"), "sig"))
	assert.Equal(t, 1, f.metrics.webhooks["invoice.paid:ignored"])
}
