package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

// GetActiveSubscription возвращает активную подписку пользователя или nil, если её нет.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var sub models.Subscription
	query := `SELECT id, user_id, active, started_at
			  FROM subscriptions
			  WHERE user_id = $1 AND active
			  ORDER BY started_at DESC
			  LIMIT 1`
	err := s.DB.QueryRowContext(ctx, query, userID).Scan(&sub.ID, &sub.UserID, &sub.Active, &sub.StartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// ActivateSubscription отмечает подписку пользователя активной.
// Новая запись в subscriptions создаётся, только если активной ещё нет,
// поэтому повторная доставка того же события ничего не дублирует.
// created сообщает, была ли создана новая запись.
func (s *Storage) ActivateSubscription(ctx context.Context, userID int64, customerID, subscriptionID string) (created bool, err error) {
	const op = "storage.ActivateSubscription"
	if err = ctxDone(ctx, op); err != nil {
		return false, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperr.NotFound("user not found")
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var activeID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM subscriptions WHERE user_id = $1 AND active LIMIT 1`, userID).Scan(&activeID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO subscriptions (user_id, active) VALUES ($1, TRUE)`, userID); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE users
			  SET has_subscription = TRUE,
			      stripe_customer_id = COALESCE($2, stripe_customer_id),
			      stripe_subscription_id = COALESCE($3, stripe_subscription_id)
			  WHERE id = $1`
	if _, err = tx.ExecContext(ctx, query, userID, nullString(customerID), nullString(subscriptionID)); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}
