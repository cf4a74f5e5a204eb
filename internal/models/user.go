// Package models содержит доменные структуры маркетплейса: пользователей,
// сделки, сообщения и подписки, а также команды, которые приходят из HTTP-слоя.
package models

import "time"

// Role — роль пользователя. Задаётся при регистрации и больше не меняется.
type Role string

const (
	RoleCreator Role = "creator"
	RoleBrand   Role = "brand"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleBrand
}

// User — зарегистрированный пользователь.
type User struct {
	ID                   int64
	Name                 string
	Email                string
	PasswordHash         string
	Role                 Role
	HasSubscription      bool
	StripeCustomerID     *string // ID клиента у платёжного провайдера, создаётся один раз
	StripeSubscriptionID *string
	CreatedAt            time.Time
}

// UserProjection — внешнее представление пользователя.
// Хэш пароля и платёжные идентификаторы сюда не попадают.
type UserProjection struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) Projection() *UserProjection {
	if u == nil {
		return nil
	}
	return &UserProjection{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Principal — аутентифицированный вызывающий. Передаётся явно в каждую операцию сервиса.
type Principal struct {
	UserID          int64
	Role            Role
	HasSubscription bool
}

// SignupRequest — данные для регистрации.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,oneof=creator brand"`
}

// LoginRequest — данные для входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
