package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/collab-deals/internal/cache"
	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/models"
	"github.com/magabrotheeeer/collab-deals/internal/paymentprovider"
)

// WebhookDedupTTL — сколько помним обработанные события провайдера.
const WebhookDedupTTL = 24 * time.Hour

// HandleWebhook проверяет подпись и применяет событие провайдера.
//
// Ошибку возвращает только невалидная подпись. Сбои обработки логируются,
// провайдеру всё равно отвечают успехом: переходы в хранилище идемпотентны,
// а повторная доставка уже обработанного события отсекается по его id.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.WebhookEvent("unknown", "invalid_signature")
		s.log.Warn("webhook rejected", sl.Err(err))
		if errors.Is(err, paymentprovider.ErrInvalidSignature) {
			return &apperr.Error{Kind: apperr.KindValidation, Message: "invalid webhook signature", Err: err}
		}
		return &apperr.Error{Kind: apperr.KindValidation, Message: "malformed webhook payload", Err: err}
	}

	log := s.log.With(slog.String("event_id", event.ID), slog.String("event_type", event.Type))

	key := cache.WebhookEventKey(event.ID)
	seen, err := s.cache.Seen(ctx, key)
	if err != nil {
		log.Warn("failed to check webhook dedup key", sl.Err(err))
	}
	if seen {
		s.metrics.WebhookEvent(event.Type, "duplicate")
		log.Info("webhook event already processed")
		return nil
	}

	if event.Type != paymentprovider.EventCheckoutCompleted || event.Checkout == nil {
		s.metrics.WebhookEvent(event.Type, "ignored")
		return nil
	}

	if err := s.applyCheckout(ctx, log, event.Checkout); err != nil {
		s.metrics.WebhookEvent(event.Type, "error")
		log.Error("failed to apply checkout", sl.Err(err))
		return nil
	}
	s.metrics.WebhookEvent(event.Type, "ok")

	if _, err := s.cache.MarkOnce(ctx, key, WebhookDedupTTL); err != nil {
		log.Warn("failed to store webhook dedup key", sl.Err(err))
	}
	return nil
}

func (s *Service) applyCheckout(ctx context.Context, log *slog.Logger, checkout *paymentprovider.CompletedCheckout) error {
	switch checkout.Mode {
	case paymentprovider.ModeSubscription:
		raw, ok := checkout.Metadata["userId"]
		if !ok {
			log.Warn("subscription checkout without userId")
			return nil
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Warn("subscription checkout with bad userId", slog.String("user_id", raw))
			return nil
		}
		return s.activateSubscription(ctx, log, userID, checkout)
	case paymentprovider.ModePayment:
		raw, ok := checkout.Metadata["dealId"]
		if !ok {
			log.Warn("payment checkout without dealId")
			return nil
		}
		dealID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Warn("payment checkout with bad dealId", slog.String("deal_id", raw))
			return nil
		}
		return s.markDealPaid(ctx, log, dealID)
	default:
		log.Info("checkout mode ignored", slog.String("mode", checkout.Mode))
		return nil
	}
}

func (s *Service) activateSubscription(ctx context.Context, log *slog.Logger, userID int64, checkout *paymentprovider.CompletedCheckout) error {
	const op = "payment.activateSubscription"

	created, err := s.repo.ActivateSubscription(ctx, userID, checkout.CustomerID, checkout.SubscriptionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		log.Info("subscription already active", sl.UserID(userID))
		return nil
	}
	log.Info("subscription activated", sl.UserID(userID))

	event := models.Event{Type: models.EventSubscriptionActivated}
	if user, err := s.repo.GetUser(ctx, userID); err == nil {
		event.Recipient = user.Projection()
	} else {
		log.Warn("failed to load subscriber", sl.UserID(userID), sl.Err(err))
	}
	s.publish(ctx, event)
	return nil
}

func (s *Service) markDealPaid(ctx context.Context, log *slog.Logger, dealID int64) error {
	const op = "payment.markDealPaid"

	_, changed, err := s.repo.MarkDealPaid(ctx, dealID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		log.Info("deal already paid", sl.DealID(dealID))
		return nil
	}
	log.Info("deal paid", sl.DealID(dealID))

	if err := s.cache.Invalidate(ctx, cache.DealKey(dealID)); err != nil {
		log.Warn("failed to remove from cache", sl.DealID(dealID), sl.Err(err))
	}

	event := models.Event{Type: models.EventDealPaid, DealID: dealID}
	if view, err := s.repo.GetDealView(ctx, dealID); err == nil {
		event.DealTitle = view.Title
		event.Recipient = view.Creator
		event.Actor = view.Brand
	} else {
		log.Warn("failed to load paid deal", sl.DealID(dealID), sl.Err(err))
	}
	s.publish(ctx, event)
	return nil
}
