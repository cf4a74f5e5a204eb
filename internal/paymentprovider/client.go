package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/magabrotheeeer/collab-deals/internal/config"
)

// Client работает со Stripe API. Все вызовы ограничены timeout.
type Client struct {
	sc            *client.API
	currency      string
	webhookSecret string
	timeout       time.Duration
}

func NewClient(cfg config.Stripe) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return NewClientWithBackends(cfg, stripe.NewBackends(httpClient))
}

// NewClientWithBackends позволяет подменить адрес API (используется в тестах).
func NewClientWithBackends(cfg config.Stripe, backends *stripe.Backends) *Client {
	return &Client{
		sc:            client.New(cfg.SecretKey, backends),
		currency:      cfg.Currency,
		webhookSecret: cfg.WebhookSecret,
		timeout:       cfg.Timeout,
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// CreateCustomer создаёт клиента у провайдера. idempotencyKey защищает от дублей при повторе.
func (c *Client) CreateCustomer(ctx context.Context, email, name, idempotencyKey string) (string, error) {
	const op = "paymentprovider.CreateCustomer"

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	cust, err := c.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession создаёт разовую или рекуррентную checkout-сессию.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	const op = "paymentprovider.CreateCheckoutSession"

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(req.Mode),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	for _, item := range req.LineItems {
		priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(c.currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(item.Name),
			},
			UnitAmount: stripe.Int64(item.UnitAmount),
		}
		if item.Interval != "" {
			priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(item.Interval),
			}
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: priceData,
			Quantity:  stripe.Int64(item.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := c.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook проверяет подпись Stripe-Signature и разбирает событие.
// Невалидная подпись возвращается как ErrInvalidSignature.
func (c *Client) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	const op = "paymentprovider.ParseWebhook"

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}

	res := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if res.Type != EventCheckoutCompleted || event.Data == nil {
		return res, nil
	}

	var session stripe.CheckoutSession
	if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	checkout := &CompletedCheckout{
		SessionID: session.ID,
		Mode:      string(session.Mode),
		Metadata:  session.Metadata,
	}
	if session.Customer != nil {
		checkout.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		checkout.SubscriptionID = session.Subscription.ID
	}
	res.Checkout = checkout
	return res, nil
}
