package models

import "time"

// Message — сообщение в переписке по сделке. После создания не меняется.
type Message struct {
	ID        int64     `json:"id"`
	DealID    int64     `json:"dealId"`
	SenderID  int64     `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageView — сообщение с проекцией отправителя.
type MessageView struct {
	Message
	Sender *UserProjection `json:"sender,omitempty"`
}

// SendMessageRequest — команда отправки сообщения.
type SendMessageRequest struct {
	DealID  int64  `json:"dealId" validate:"required,gt=0"`
	Content string `json:"content" validate:"required,max=4000"`
}
