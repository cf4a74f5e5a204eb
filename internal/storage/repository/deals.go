package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/models"
	"github.com/magabrotheeeer/collab-deals/internal/services/dealstate"
)

const dealColumns = `id, brand_id, creator_id, title, description, amount, status, created_at`

const dealViewQuery = `SELECT d.id, d.brand_id, d.creator_id, d.title, d.description, d.amount, d.status, d.created_at,
       b.id, b.name, b.email, b.role,
       c.id, c.name, c.email, c.role
FROM deals d
JOIN users b ON b.id = d.brand_id
LEFT JOIN users c ON c.id = d.creator_id`

// CreateDeal сохраняет новую открытую сделку.
func (s *Storage) CreateDeal(ctx context.Context, deal models.Deal) (*models.Deal, error) {
	const op = "storage.CreateDeal"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO deals (brand_id, title, description, amount, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + dealColumns
	d, err := scanDeal(s.DB.QueryRowContext(ctx, query,
		deal.BrandID, deal.Title, deal.Description, deal.Amount, models.DealOpen))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// GetDeal возвращает сделку без проекций пользователей.
func (s *Storage) GetDeal(ctx context.Context, id int64) (*models.Deal, error) {
	const op = "storage.GetDeal"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	d, err := scanDeal(s.DB.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// GetDealView возвращает сделку с брендом и креатором.
func (s *Storage) GetDealView(ctx context.Context, id int64) (*models.DealView, error) {
	const op = "storage.GetDealView"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	v, err := scanDealView(s.DB.QueryRowContext(ctx, dealViewQuery+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (s *Storage) ListDeals(ctx context.Context) ([]models.DealView, error) {
	const op = "storage.ListDeals"
	return s.listDealViews(ctx, op, dealViewQuery+` ORDER BY d.created_at DESC, d.id DESC`)
}

func (s *Storage) ListDealsByStatus(ctx context.Context, status models.DealStatus) ([]models.DealView, error) {
	const op = "storage.ListDealsByStatus"
	return s.listDealViews(ctx, op,
		dealViewQuery+` WHERE d.status = $1 ORDER BY d.created_at DESC, d.id DESC`, status)
}

// ListDealsByParticipant возвращает сделки, где пользователь бренд или креатор.
func (s *Storage) ListDealsByParticipant(ctx context.Context, userID int64) ([]models.DealView, error) {
	const op = "storage.ListDealsByParticipant"
	return s.listDealViews(ctx, op,
		dealViewQuery+` WHERE d.brand_id = $1 OR d.creator_id = $1 ORDER BY d.created_at DESC, d.id DESC`, userID)
}

func (s *Storage) listDealViews(ctx context.Context, op, query string, args ...any) ([]models.DealView, error) {
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.DealView, 0)
	for rows.Next() {
		v, err := scanDealView(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AcceptDeal атомарно назначает креатора открытой сделке.
// Если сделка уже занята, возвращается Conflict; если её нет, NotFound.
func (s *Storage) AcceptDeal(ctx context.Context, dealID, creatorID int64) (*models.Deal, error) {
	const op = "storage.AcceptDeal"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE deals
			  SET creator_id = $2, status = '` + string(models.DealAccepted) + `'
			  WHERE id = $1 AND creator_id IS NULL AND status IN (` + statusList(dealstate.SourcesFor(dealstate.Accept)) + `)
			  RETURNING ` + dealColumns
	d, err := scanDeal(s.DB.QueryRowContext(ctx, query, dealID, creatorID))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return nil, fmt.Errorf("%s: %w", op, s.rejectTransition(ctx, dealID, dealstate.Accept))
}

// MarkDealPaid переводит сделку в paid. Повторный вызов для оплаченной
// или уже завершённой сделки не ошибка: changed будет false.
func (s *Storage) MarkDealPaid(ctx context.Context, dealID int64) (deal *models.Deal, changed bool, err error) {
	const op = "storage.MarkDealPaid"
	if err = ctxDone(ctx, op); err != nil {
		return nil, false, err
	}

	query := `WITH prev AS (
				  SELECT id, status FROM deals WHERE id = $1 FOR UPDATE
			  )
			  UPDATE deals d
			  SET status = '` + string(models.DealPaid) + `'
			  FROM prev
			  WHERE d.id = prev.id AND prev.status IN (` + statusList(dealstate.SourcesFor(dealstate.PaymentCompleted)) + `)
			  RETURNING d.id, d.brand_id, d.creator_id, d.title, d.description, d.amount, d.status, d.created_at, prev.status`

	var prevStatus models.DealStatus
	deal, err = scanDealWith(s.DB.QueryRowContext(ctx, query, dealID), &prevStatus)
	if err == nil {
		return deal, prevStatus != models.DealPaid, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	// оплата уже учтена, сделка успела закрыться
	current, err := s.GetDeal(ctx, dealID)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if current.Status == models.DealCompleted {
		return current, false, nil
	}
	if _, err = dealstate.Transition(current.Status, dealstate.PaymentCompleted); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return nil, false, fmt.Errorf("%s: %w", op, apperr.Conflict("deal was modified concurrently"))
}

// CompleteDeal закрывает оплаченную сделку бренда.
func (s *Storage) CompleteDeal(ctx context.Context, dealID, brandID int64) (*models.Deal, error) {
	const op = "storage.CompleteDeal"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE deals
			  SET status = '` + string(models.DealCompleted) + `'
			  WHERE id = $1 AND brand_id = $2 AND status IN (` + statusList(dealstate.SourcesFor(dealstate.Complete)) + `)
			  RETURNING ` + dealColumns
	d, err := scanDeal(s.DB.QueryRowContext(ctx, query, dealID, brandID))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return nil, fmt.Errorf("%s: %w", op, s.rejectTransition(ctx, dealID, dealstate.Complete))
}

// DealStats считает сделки пользователя по группам статусов.
func (s *Storage) DealStats(ctx context.Context, userID int64) (models.DealStats, error) {
	const op = "storage.DealStats"
	var stats models.DealStats
	if err := ctxDone(ctx, op); err != nil {
		return stats, err
	}

	query := `SELECT COUNT(*),
				  COUNT(*) FILTER (WHERE status IN ('accepted', 'paid')),
				  COUNT(*) FILTER (WHERE status = 'open'),
				  COUNT(*) FILTER (WHERE status = 'completed')
			  FROM deals
			  WHERE brand_id = $1 OR creator_id = $1`
	if err := s.DB.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalDeals, &stats.ActiveDeals, &stats.PendingDeals, &stats.CompletedDeals); err != nil {
		return stats, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// rejectTransition вызывается, когда условный UPDATE не затронул строк:
// перечитывает сделку и объясняет причину отказа.
func (s *Storage) rejectTransition(ctx context.Context, dealID int64, event dealstate.Event) error {
	d, err := s.GetDeal(ctx, dealID)
	if err != nil {
		return err
	}
	if _, err = dealstate.Transition(d.Status, event); err != nil {
		return err
	}
	// статус допускает переход, значит не совпало другое условие (владелец или креатор)
	return apperr.Conflict("deal was modified concurrently")
}

func statusList(statuses []models.DealStatus) string {
	quoted := make([]string, 0, len(statuses))
	for _, st := range statuses {
		quoted = append(quoted, "'"+string(st)+"'")
	}
	return strings.Join(quoted, ", ")
}

func scanDeal(row scanner) (*models.Deal, error) {
	return scanDealWith(row)
}

func scanDealWith(row scanner, extra ...any) (*models.Deal, error) {
	var (
		d         models.Deal
		creatorID sql.NullInt64
	)
	dest := append([]any{&d.ID, &d.BrandID, &creatorID, &d.Title, &d.Description, &d.Amount, &d.Status, &d.CreatedAt}, extra...)
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("deal not found")
	}
	if err != nil {
		return nil, err
	}
	if creatorID.Valid {
		d.CreatorID = &creatorID.Int64
	}
	return &d, nil
}

func scanDealView(row scanner) (*models.DealView, error) {
	var (
		v         models.DealView
		creatorID sql.NullInt64
		brand     models.UserProjection
		cID       sql.NullInt64
		cName     sql.NullString
		cEmail    sql.NullString
		cRole     sql.NullString
	)
	err := row.Scan(&v.ID, &v.BrandID, &creatorID, &v.Title, &v.Description, &v.Amount, &v.Status, &v.CreatedAt,
		&brand.ID, &brand.Name, &brand.Email, &brand.Role,
		&cID, &cName, &cEmail, &cRole)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("deal not found")
	}
	if err != nil {
		return nil, err
	}
	if creatorID.Valid {
		v.CreatorID = &creatorID.Int64
	}
	v.Brand = &brand
	if cID.Valid {
		v.Creator = &models.UserProjection{
			ID:    cID.Int64,
			Name:  cName.String,
			Email: cEmail.String,
			Role:  models.Role(cRole.String),
		}
	}
	return &v, nil
}
