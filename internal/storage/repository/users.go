package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

const userColumns = `id, name, email, password_hash, role, has_subscription,
	stripe_customer_id, stripe_subscription_id, created_at`

// CreateUser сохраняет пользователя и возвращает его ID.
// Занятый email возвращается как Conflict.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	query := `INSERT INTO users (name, email, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, apperr.Conflict("email already registered"))
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetStripeCustomerID сохраняет ID клиента платёжного провайдера.
// Уже записанный ID не перезаписывается; возвращается актуальное значение.
func (s *Storage) SetStripeCustomerID(ctx context.Context, userID int64, customerID string) (string, error) {
	const op = "storage.SetStripeCustomerID"
	if err := ctxDone(ctx, op); err != nil {
		return "", err
	}

	var stored string
	query := `UPDATE users
			  SET stripe_customer_id = COALESCE(stripe_customer_id, $2)
			  WHERE id = $1
			  RETURNING stripe_customer_id`
	err := s.DB.QueryRowContext(ctx, query, userID, customerID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, apperr.NotFound("user not found"))
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u            models.User
		customerID   sql.NullString
		subscription sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.HasSubscription,
		&customerID, &subscription, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		u.StripeCustomerID = &customerID.String
	}
	if subscription.Valid {
		u.StripeSubscriptionID = &subscription.String
	}
	return &u, nil
}
