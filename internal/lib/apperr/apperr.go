// Package apperr описывает типизированные ошибки бизнес-логики.
// Каждая ошибка несёт стабильный Kind, по которому HTTP-слой выбирает код ответа,
// а клиент может отличить, например, отсутствие подписки от общего запрета доступа.
package apperr

import (
	"errors"
	"fmt"
)

// Kind — стабильный вид ошибки.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindUnauthorized         Kind = "unauthorized"
	KindForbidden            Kind = "forbidden"
	KindSubscriptionRequired Kind = "subscription_required"
	KindNotFound             Kind = "not_found"
	KindConflict             Kind = "conflict"
	KindBlockedContent       Kind = "blocked_content"
	KindPaymentProvider      Kind = "payment_provider"
	KindInternal             Kind = "internal"
)

// Error — ошибка с видом и сообщением, пригодным для показа клиенту.
// Err хранит исходную причину и в ответ не попадает.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать ошибки по виду: errors.Is(err, apperr.ErrConflict).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Эталонные значения для errors.Is.
var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrSubscriptionRequired = &Error{Kind: KindSubscriptionRequired}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrConflict             = &Error{Kind: KindConflict}
	ErrBlockedContent       = &Error{Kind: KindBlockedContent}
	ErrPaymentProvider      = &Error{Kind: KindPaymentProvider}
)

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func SubscriptionRequired(msg string) *Error {
	return &Error{Kind: KindSubscriptionRequired, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func BlockedContent(msg string) *Error {
	return &Error{Kind: KindBlockedContent, Message: msg}
}

// PaymentProvider оборачивает ошибку внешнего платёжного сервиса.
func PaymentProvider(msg string, err error) *Error {
	return &Error{Kind: KindPaymentProvider, Message: msg, Err: err}
}

// Internal оборачивает непредвиденную ошибку (БД, сеть и т.п.).
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf возвращает вид ошибки; для ошибок вне пакета KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf возвращает сообщение для клиента.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}
