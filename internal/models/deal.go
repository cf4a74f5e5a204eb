package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealStatus — состояние сделки.
//
// open      — сделка опубликована, исполнителя нет (creator_id IS NULL);
// accepted  — креатор принял сделку, ждём оплату от бренда;
// paid      — оплата прошла;
// completed — работа закрыта брендом.
type DealStatus string

const (
	DealOpen      DealStatus = "open"
	DealAccepted  DealStatus = "accepted"
	DealPaid      DealStatus = "paid"
	DealCompleted DealStatus = "completed"
)

// Deal — предложение о сотрудничестве от бренда.
// BrandID неизменен; CreatorID выставляется не более одного раза.
type Deal struct {
	ID          int64           `json:"id"`
	BrandID     int64           `json:"brandId"`
	CreatorID   *int64          `json:"creatorId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Status      DealStatus      `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// IsParticipant сообщает, является ли пользователь брендом или креатором сделки.
func (d *Deal) IsParticipant(userID int64) bool {
	if d.BrandID == userID {
		return true
	}
	return d.CreatorID != nil && *d.CreatorID == userID
}

// DealView — сделка вместе с проекциями бренда и креатора.
type DealView struct {
	Deal
	Brand   *UserProjection `json:"brand,omitempty"`
	Creator *UserProjection `json:"creator,omitempty"`
}

// DealStats — сводка по сделкам пользователя.
type DealStats struct {
	TotalDeals     int `json:"totalDeals"`
	ActiveDeals    int `json:"activeDeals"`
	PendingDeals   int `json:"pendingDeals"`
	CompletedDeals int `json:"completedDeals"`
}

// CreateDealRequest — команда создания сделки. brandId из тела не принимается:
// владельцем всегда становится вызывающий.
// Сумму проверяет сервис.
type CreateDealRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
}
