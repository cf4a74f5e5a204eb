// Package payment — оплата сделок, подписка на поиск и обработка вебхуков провайдера.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/collab-deals/internal/config"
	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/models"
	"github.com/magabrotheeeer/collab-deals/internal/paymentprovider"
	"github.com/magabrotheeeer/collab-deals/internal/services/policy"
)

// FeeRate — комиссия платформы сверх суммы сделки.
var FeeRate = decimal.RequireFromString("0.09")

// SubscriptionProductName — название позиции подписки в checkout.
const SubscriptionProductName = "Search Access Subscription"

// Repository — данные, нужные для оплаты.
type Repository interface {
	GetDeal(ctx context.Context, id int64) (*models.Deal, error)
	GetDealView(ctx context.Context, id int64) (*models.DealView, error)
	MarkDealPaid(ctx context.Context, dealID int64) (*models.Deal, bool, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userID int64, customerID string) (string, error)
	GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	ActivateSubscription(ctx context.Context, userID int64, customerID, subscriptionID string) (bool, error)
}

// Provider — платёжный провайдер.
type Provider interface {
	CreateCustomer(ctx context.Context, email, name, idempotencyKey string) (string, error)
	CreateCheckoutSession(ctx context.Context, req paymentprovider.CheckoutRequest) (*paymentprovider.Session, error)
	ParseWebhook(payload []byte, signature string) (*paymentprovider.WebhookEvent, error)
}

// Cache — отметки обработанных вебхуков и сброс карточек сделок.
type Cache interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// EventPublisher отправляет доменные события в брокер.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Metrics — счётчики оплаты.
type Metrics interface {
	Checkout(kind, result string)
	WebhookEvent(eventType, result string)
	EventPublished(eventType, result string)
}

// Service оркестрирует оплату.
type Service struct {
	log                    *slog.Logger
	repo                   Repository
	provider               Provider
	cache                  Cache
	events                 EventPublisher
	metrics                Metrics
	baseURL                string
	subscriptionPriceCents int64
	now                    func() time.Time
}

func New(
	log *slog.Logger,
	repo Repository,
	provider Provider,
	cache Cache,
	events EventPublisher,
	metrics Metrics,
	cfg config.Stripe,
) *Service {
	return &Service{
		log:                    log,
		repo:                   repo,
		provider:               provider,
		cache:                  cache,
		events:                 events,
		metrics:                metrics,
		baseURL:                cfg.AppBaseURL,
		subscriptionPriceCents: cfg.SubscriptionPriceCents,
		now:                    time.Now,
	}
}

// Quote считает комиссию и итог к оплате для суммы сделки.
func Quote(amount decimal.Decimal) (fee, total decimal.Decimal) {
	fee = amount.Mul(FeeRate).Round(2)
	return fee, amount.Add(fee)
}

// ToCents переводит сумму в центы с округлением половины от нуля.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

// CreateDealCheckout создаёт checkout-сессию на оплату сделки брендом-владельцем.
// В сессии две позиции: сумма сделки и комиссия платформы.
func (s *Service) CreateDealCheckout(ctx context.Context, p models.Principal, dealID int64) (*models.CheckoutSession, error) {
	const op = "payment.CreateDealCheckout"

	deal, err := s.repo.GetDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := policy.CanPayForDeal(p, deal); err != nil {
		return nil, err
	}

	fee, _ := Quote(deal.Amount)
	id := strconv.FormatInt(deal.ID, 10)
	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CheckoutRequest{
		Mode: paymentprovider.ModePayment,
		LineItems: []paymentprovider.LineItem{
			{Name: "Deal Payment: " + deal.Title, UnitAmount: ToCents(deal.Amount), Quantity: 1},
			{Name: "Platform Fee (9%)", UnitAmount: ToCents(fee), Quantity: 1},
		},
		Metadata:   map[string]string{"dealId": id},
		SuccessURL: s.baseURL + "/dashboard?payment=success",
		CancelURL:  s.baseURL + "/deals/" + id + "?payment=cancelled",
	})
	if err != nil {
		s.metrics.Checkout("deal", "error")
		s.log.Error("failed to create deal checkout", sl.DealID(dealID), sl.Err(err))
		return nil, apperr.PaymentProvider("payment processing failed", err)
	}
	s.metrics.Checkout("deal", "ok")

	s.log.Info("deal checkout created",
		sl.DealID(dealID),
		slog.String("session_id", session.ID),
		slog.String("fee", fee.StringFixed(2)),
	)
	return &models.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// CreateSubscriptionCheckout создаёт checkout-сессию ежемесячной подписки.
// Клиент у провайдера создаётся один раз и запоминается у пользователя.
func (s *Service) CreateSubscriptionCheckout(ctx context.Context, p models.Principal) (*models.CheckoutSession, error) {
	const op = "payment.CreateSubscriptionCheckout"

	active, err := s.repo.GetActiveSubscription(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := policy.CanSubscribe(active); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		s.metrics.Checkout("subscription", "error")
		return nil, err
	}

	userID := strconv.FormatInt(user.ID, 10)
	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CheckoutRequest{
		Mode:       paymentprovider.ModeSubscription,
		CustomerID: customerID,
		LineItems: []paymentprovider.LineItem{{
			Name:       SubscriptionProductName,
			UnitAmount: s.subscriptionPriceCents,
			Quantity:   1,
			Interval:   "month",
		}},
		Metadata:   map[string]string{"userId": userID},
		SuccessURL: s.baseURL + "/dashboard?subscription=success",
		CancelURL:  s.baseURL + "/subscribe?subscription=cancelled",
	})
	if err != nil {
		s.metrics.Checkout("subscription", "error")
		s.log.Error("failed to create subscription checkout", sl.UserID(user.ID), sl.Err(err))
		return nil, apperr.PaymentProvider("subscription failed", err)
	}
	s.metrics.Checkout("subscription", "ok")

	s.log.Info("subscription checkout created", sl.UserID(user.ID), slog.String("session_id", session.ID))
	return &models.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// SubscriptionStatus возвращает признак подписки и активную запись, если она есть.
func (s *Service) SubscriptionStatus(ctx context.Context, p models.Principal) (*models.SubscriptionStatus, error) {
	const op = "payment.SubscriptionStatus"

	sub, err := s.repo.GetActiveSubscription(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.SubscriptionStatus{
		Active:       p.HasSubscription,
		Subscription: sub,
	}, nil
}

func (s *Service) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	const op = "payment.ensureCustomer"

	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	created, err := s.provider.CreateCustomer(ctx, user.Email, user.Name, fmt.Sprintf("customer-user-%d", user.ID))
	if err != nil {
		s.log.Error("failed to create customer", sl.UserID(user.ID), sl.Err(err))
		return "", apperr.PaymentProvider("subscription failed", err)
	}

	stored, err := s.repo.SetStripeCustomerID(ctx, user.ID, created)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

func (s *Service) publish(ctx context.Context, event models.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, string(event.Type), event); err != nil {
		s.metrics.EventPublished(string(event.Type), "error")
		s.log.Error("failed to publish event", slog.String("type", string(event.Type)), sl.Err(err))
		return
	}
	s.metrics.EventPublished(string(event.Type), "ok")
}
