package models

import "time"

// Subscription — запись о подписке на поиск сделок.
// У пользователя может быть несколько записей, но активна не более одной.
type Subscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"startedAt"`
}

// SubscriptionStatus — ответ на запрос статуса подписки.
type SubscriptionStatus struct {
	Active       bool          `json:"active"`
	Subscription *Subscription `json:"subscription"`
}

// CheckoutSession — результат создания платёжной сессии.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreatePaymentRequest — команда оплаты сделки.
type CreatePaymentRequest struct {
	DealID int64 `json:"dealId" validate:"required,gt=0"`
}
