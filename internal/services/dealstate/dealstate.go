// Package dealstate описывает допустимые переходы между статусами сделки.
//
// Проверки роли и владения сделкой сюда не входят: их выполняет пакет policy
// до вызова Transition. Здесь только таблица переходов.
package dealstate

import (
	"fmt"

	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

// Event — событие, которое двигает сделку по жизненному циклу.
type Event string

const (
	// Accept — креатор принимает открытую сделку.
	Accept Event = "accept"
	// PaymentCompleted — платёжный провайдер подтвердил оплату.
	PaymentCompleted Event = "payment_completed"
	// Complete — бренд закрывает оплаченную сделку.
	Complete Event = "complete"
)

type edge struct {
	from  models.DealStatus
	event Event
}

var transitions = map[edge]models.DealStatus{
	{models.DealOpen, Accept}:               models.DealAccepted,
	{models.DealAccepted, PaymentCompleted}: models.DealPaid,
	// повторная доставка вебхука
	{models.DealPaid, PaymentCompleted}: models.DealPaid,
	{models.DealPaid, Complete}:         models.DealCompleted,
}

// Transition возвращает статус, в который сделка переходит из from по событию event.
// Для недопустимой пары возвращается ошибка вида Conflict.
func Transition(from models.DealStatus, event Event) (models.DealStatus, error) {
	to, ok := transitions[edge{from, event}]
	if !ok {
		return "", apperr.Conflict(conflictMessage(from, event))
	}
	return to, nil
}

// CanTransition сообщает, допустим ли переход без построения ошибки.
func CanTransition(from models.DealStatus, event Event) bool {
	_, ok := transitions[edge{from, event}]
	return ok
}

// SourcesFor возвращает статусы, из которых событие допустимо.
// Используется хранилищем в условиях UPDATE ... WHERE status IN (...).
func SourcesFor(event Event) []models.DealStatus {
	var res []models.DealStatus
	for _, s := range []models.DealStatus{models.DealOpen, models.DealAccepted, models.DealPaid, models.DealCompleted} {
		if CanTransition(s, event) {
			res = append(res, s)
		}
	}
	return res
}

func conflictMessage(from models.DealStatus, event Event) string {
	switch {
	case event == Accept:
		return "deal already accepted"
	case event == Complete && from != models.DealCompleted:
		return "deal must be paid before completion"
	case event == Complete:
		return "deal is already completed"
	case event == PaymentCompleted && from == models.DealOpen:
		return "deal has no creator yet"
	default:
		return fmt.Sprintf("deal in status %q does not allow %s", from, event)
	}
}
