// Package marketplace — сценарии работы со сделками и перепиской по ним.
//
// Сервис проверяет права до любых изменений, делегирует атомарные переходы
// хранилищу и только после успешной записи сбрасывает кэш, публикует событие
// и обновляет метрики.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/collab-deals/internal/cache"
	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/lib/contentfilter"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/models"
	"github.com/magabrotheeeer/collab-deals/internal/services/dealstate"
	"github.com/magabrotheeeer/collab-deals/internal/services/policy"
)

// BlockedMessageText — ответ клиенту, когда сообщение содержит контакты вне платформы.
const BlockedMessageText = "Off-platform communication blocked. Please keep all communication on the platform."

// maxAmount — верхняя граница суммы для NUMERIC(10, 2).
var maxAmount = decimal.New(1, 8)

// Repository — хранилище сделок и сообщений.
type Repository interface {
	CreateDeal(ctx context.Context, deal models.Deal) (*models.Deal, error)
	GetDeal(ctx context.Context, id int64) (*models.Deal, error)
	GetDealView(ctx context.Context, id int64) (*models.DealView, error)
	ListDeals(ctx context.Context) ([]models.DealView, error)
	ListDealsByStatus(ctx context.Context, status models.DealStatus) ([]models.DealView, error)
	ListDealsByParticipant(ctx context.Context, userID int64) ([]models.DealView, error)
	AcceptDeal(ctx context.Context, dealID, creatorID int64) (*models.Deal, error)
	CompleteDeal(ctx context.Context, dealID, brandID int64) (*models.Deal, error)
	DealStats(ctx context.Context, userID int64) (models.DealStats, error)
	CreateMessage(ctx context.Context, msg models.Message) (*models.Message, error)
	ListMessages(ctx context.Context, dealID int64) ([]models.MessageView, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Cache — кэш карточек сделок.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// EventPublisher отправляет доменные события в брокер.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Metrics — доменные счётчики.
type Metrics interface {
	DealOperation(op, result string)
	MessageBlocked(token string)
	MessageSent()
	EventPublished(eventType, result string)
}

// Service — фасад маркетплейса.
type Service struct {
	log      *slog.Logger
	repo     Repository
	cache    Cache
	events   EventPublisher
	metrics  Metrics
	cacheTTL time.Duration
	now      func() time.Time
}

func New(log *slog.Logger, repo Repository, cache Cache, events EventPublisher, metrics Metrics, cacheTTL time.Duration) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		cache:    cache,
		events:   events,
		metrics:  metrics,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *Service) ListDeals(ctx context.Context, _ models.Principal) ([]models.DealView, error) {
	const op = "marketplace.ListDeals"

	deals, err := s.repo.ListDeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deals, nil
}

// GetDeal возвращает карточку сделки, сначала из кэша.
// В кэш попадают только завершённые сделки: их карточка больше не меняется.
func (s *Service) GetDeal(ctx context.Context, _ models.Principal, id int64) (*models.DealView, error) {
	const op = "marketplace.GetDeal"

	key := cache.DealKey(id)
	var cached models.DealView
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read deal from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	view, err := s.repo.GetDealView(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if view.Status != models.DealCompleted {
		return view, nil
	}

	if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
		s.log.Warn("failed to add deal to cache", slog.String("key", key), sl.Err(err))
	}
	return view, nil
}

// CreateDeal публикует новую сделку от имени бренда.
func (s *Service) CreateDeal(ctx context.Context, p models.Principal, req models.CreateDealRequest) (*models.Deal, error) {
	const op = "marketplace.CreateDeal"

	if err := policy.CanCreateDeal(p); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, apperr.Validation("title and description are required")
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	deal, err := s.repo.CreateDeal(ctx, models.Deal{
		BrandID:     p.UserID,
		Title:       title,
		Description: description,
		Amount:      req.Amount,
		Status:      models.DealOpen,
	})
	if err != nil {
		s.metrics.DealOperation("create", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.DealOperation("create", "ok")

	s.log.Info("deal created", sl.DealID(deal.ID), sl.UserID(p.UserID))
	s.publish(ctx, models.Event{
		Type:      models.EventDealCreated,
		DealID:    deal.ID,
		DealTitle: deal.Title,
	})
	return deal, nil
}

// AcceptDeal закрепляет открытую сделку за креатором.
// Из нескольких одновременных попыток успешна ровно одна, остальные получают Conflict.
func (s *Service) AcceptDeal(ctx context.Context, p models.Principal, dealID int64) (*models.DealView, error) {
	const op = "marketplace.AcceptDeal"

	if err := policy.CanAcceptDeal(p); err != nil {
		return nil, err
	}

	if _, err := s.repo.AcceptDeal(ctx, dealID, p.UserID); err != nil {
		s.metrics.DealOperation("accept", resultOf(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.DealOperation("accept", "ok")
	s.invalidate(ctx, dealID)

	view, err := s.repo.GetDealView(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("deal accepted", sl.DealID(dealID), sl.UserID(p.UserID))
	s.publish(ctx, models.Event{
		Type:      models.EventDealAccepted,
		DealID:    dealID,
		DealTitle: view.Title,
		Recipient: view.Brand,
		Actor:     view.Creator,
	})
	return view, nil
}

// CompleteDeal закрывает оплаченную сделку. Доступно только бренду-владельцу.
func (s *Service) CompleteDeal(ctx context.Context, p models.Principal, dealID int64) (*models.DealView, error) {
	const op = "marketplace.CompleteDeal"

	deal, err := s.repo.GetDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := policy.CanCompleteDeal(p, deal); err != nil {
		return nil, err
	}
	if _, err := dealstate.Transition(deal.Status, dealstate.Complete); err != nil {
		s.metrics.DealOperation("complete", "conflict")
		return nil, err
	}

	if _, err := s.repo.CompleteDeal(ctx, dealID, p.UserID); err != nil {
		s.metrics.DealOperation("complete", resultOf(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.DealOperation("complete", "ok")
	s.invalidate(ctx, dealID)

	view, err := s.repo.GetDealView(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("deal completed", sl.DealID(dealID))
	s.publish(ctx, models.Event{
		Type:      models.EventDealCompleted,
		DealID:    dealID,
		DealTitle: view.Title,
		Recipient: view.Creator,
		Actor:     view.Brand,
	})
	return view, nil
}

// SearchDeals возвращает открытые сделки. Требует активной подписки.
func (s *Service) SearchDeals(ctx context.Context, p models.Principal) ([]models.DealView, error) {
	const op = "marketplace.SearchDeals"

	if err := policy.CanSearch(p); err != nil {
		return nil, err
	}
	deals, err := s.repo.ListDealsByStatus(ctx, models.DealOpen)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deals, nil
}

func (s *Service) MyDeals(ctx context.Context, p models.Principal) ([]models.DealView, error) {
	const op = "marketplace.MyDeals"

	deals, err := s.repo.ListDealsByParticipant(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deals, nil
}

func (s *Service) Stats(ctx context.Context, p models.Principal) (models.DealStats, error) {
	const op = "marketplace.Stats"

	stats, err := s.repo.DealStats(ctx, p.UserID)
	if err != nil {
		return models.DealStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// ListMessages возвращает переписку по сделке в хронологическом порядке.
func (s *Service) ListMessages(ctx context.Context, p models.Principal, dealID int64) ([]models.MessageView, error) {
	const op = "marketplace.ListMessages"

	deal, err := s.repo.GetDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := policy.CanAccessMessages(p, deal); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return messages, nil
}

// SendMessage сохраняет сообщение участника сделки.
// Сообщение с контактами вне платформы не сохраняется.
func (s *Service) SendMessage(ctx context.Context, p models.Principal, req models.SendMessageRequest) (*models.Message, error) {
	const op = "marketplace.SendMessage"

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperr.Validation("content is required")
	}

	view, err := s.repo.GetDealView(ctx, req.DealID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := policy.CanAccessMessages(p, &view.Deal); err != nil {
		return nil, err
	}

	if token, blocked := contentfilter.Match(content); blocked {
		s.metrics.MessageBlocked(token)
		s.log.Warn("message blocked",
			sl.DealID(req.DealID),
			sl.UserID(p.UserID),
			slog.String("token", token),
		)
		return nil, apperr.BlockedContent(BlockedMessageText)
	}

	msg, err := s.repo.CreateMessage(ctx, models.Message{
		DealID:   req.DealID,
		SenderID: p.UserID,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.MessageSent()

	recipient, actor := view.Brand, view.Creator
	if view.BrandID == p.UserID {
		recipient, actor = view.Creator, view.Brand
	}
	s.publish(ctx, models.Event{
		Type:      models.EventMessageSent,
		DealID:    req.DealID,
		DealTitle: view.Title,
		Recipient: recipient,
		Actor:     actor,
	})
	return msg, nil
}

func (s *Service) invalidate(ctx context.Context, dealID int64) {
	key := cache.DealKey(dealID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}

func (s *Service) publish(ctx context.Context, event models.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, string(event.Type), event); err != nil {
		s.metrics.EventPublished(string(event.Type), "error")
		s.log.Error("failed to publish event",
			slog.String("type", string(event.Type)),
			sl.DealID(event.DealID),
			sl.Err(err),
		)
		return
	}
	s.metrics.EventPublished(string(event.Type), "ok")
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation("amount must be greater than zero")
	}
	if !amount.Round(2).Equal(amount) {
		return apperr.Validation("amount must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return apperr.Validation("amount is too large")
	}
	return nil
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
