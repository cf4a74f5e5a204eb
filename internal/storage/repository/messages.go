package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/collab-deals/internal/models"
)

func (s *Storage) CreateMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	const op = "storage.CreateMessage"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var m models.Message
	query := `INSERT INTO messages (deal_id, sender_id, content)
			  VALUES ($1, $2, $3)
			  RETURNING id, deal_id, sender_id, content, created_at`
	if err := s.DB.QueryRowContext(ctx, query, msg.DealID, msg.SenderID, msg.Content).
		Scan(&m.ID, &m.DealID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}

// ListMessages возвращает переписку по сделке в порядке отправки.
func (s *Storage) ListMessages(ctx context.Context, dealID int64) ([]models.MessageView, error) {
	const op = "storage.ListMessages"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT m.id, m.deal_id, m.sender_id, m.content, m.created_at,
				  u.id, u.name, u.email, u.role
			  FROM messages m
			  JOIN users u ON u.id = m.sender_id
			  WHERE m.deal_id = $1
			  ORDER BY m.created_at, m.id`
	rows, err := s.DB.QueryContext(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.MessageView, 0)
	for rows.Next() {
		var (
			v      models.MessageView
			sender models.UserProjection
		)
		if err = rows.Scan(&v.ID, &v.DealID, &v.SenderID, &v.Content, &v.CreatedAt,
			&sender.ID, &sender.Name, &sender.Email, &sender.Role); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		v.Sender = &sender
		result = append(result, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
