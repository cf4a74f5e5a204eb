// Package paymentprovider — адаптер к Stripe: клиенты, checkout-сессии и разбор вебхуков.
package paymentprovider

import "errors"

// Режимы checkout-сессии.
const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

// EventCheckoutCompleted — тип события завершённой оплаты.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrInvalidSignature — подпись вебхука не прошла проверку.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// LineItem — позиция в checkout-сессии. Сумма в минимальных единицах валюты.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
	// Interval задаётся только для подписки: "month".
	Interval string
}

// CheckoutRequest — запрос на создание checkout-сессии.
type CheckoutRequest struct {
	Mode           string
	CustomerID     string
	LineItems      []LineItem
	Metadata       map[string]string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// Session — созданная сессия с URL для редиректа.
type Session struct {
	ID  string
	URL string
}

// CompletedCheckout — данные из события checkout.session.completed.
type CompletedCheckout struct {
	SessionID      string
	Mode           string
	Metadata       map[string]string
	CustomerID     string
	SubscriptionID string
}

// WebhookEvent — проверенное событие провайдера.
// Checkout заполнен только для checkout.session.completed.
type WebhookEvent struct {
	ID       string
	Type     string
	Checkout *CompletedCheckout
}
