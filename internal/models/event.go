package models

import "time"

// EventType — тип доменного события, он же routing key в RabbitMQ.
type EventType string

const (
	EventDealCreated           EventType = "deal.created"
	EventDealAccepted          EventType = "deal.accepted"
	EventDealPaid              EventType = "deal.paid"
	EventDealCompleted         EventType = "deal.completed"
	EventMessageSent           EventType = "message.sent"
	EventSubscriptionActivated EventType = "subscription.activated"
)

// Event — сообщение для сервиса уведомлений. Recipient — кому письмо.
type Event struct {
	Type       EventType       `json:"type"`
	DealID     int64           `json:"dealId,omitempty"`
	DealTitle  string          `json:"dealTitle,omitempty"`
	Recipient  *UserProjection `json:"recipient,omitempty"`
	Actor      *UserProjection `json:"actor,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}
