// Package policy решает, может ли вызывающий выполнить действие над сделкой.
// Все функции чистые и вызываются до любых изменений состояния.
package policy

import (
	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

// CanCreateDeal: публиковать сделки могут только бренды.
func CanCreateDeal(p models.Principal) error {
	if p.Role != models.RoleBrand {
		return apperr.Forbidden("only brands can create deals")
	}
	return nil
}

// CanAcceptDeal: принимать сделки могут только креаторы.
// Занятость сделки проверяется атомарно в хранилище.
func CanAcceptDeal(p models.Principal) error {
	if p.Role != models.RoleCreator {
		return apperr.Forbidden("only creators can accept deals")
	}
	return nil
}

// CanPayForDeal проверяет, что вызывающий является брендом-владельцем сделки
// и сделка ждёт оплаты.
func CanPayForDeal(p models.Principal, d *models.Deal) error {
	if p.Role != models.RoleBrand {
		return apperr.Forbidden("only brands can pay for deals")
	}
	if d.BrandID != p.UserID {
		return apperr.Forbidden("you can only pay for your own deals")
	}
	if d.Status != models.DealAccepted {
		return apperr.Conflict("deal is not awaiting payment")
	}
	return nil
}

// CanCompleteDeal: закрыть сделку может только её бренд.
func CanCompleteDeal(p models.Principal, d *models.Deal) error {
	if p.Role != models.RoleBrand || d.BrandID != p.UserID {
		return apperr.Forbidden("only the owning brand can complete the deal")
	}
	return nil
}

// CanSearch: поиск доступен только по подписке.
func CanSearch(p models.Principal) error {
	if !p.HasSubscription {
		return apperr.SubscriptionRequired("subscription required")
	}
	return nil
}

// CanAccessMessages: переписку видят и пишут только участники сделки.
func CanAccessMessages(p models.Principal, d *models.Deal) error {
	if !d.IsParticipant(p.UserID) {
		return apperr.Forbidden("only deal participants can access messages")
	}
	return nil
}

// CanSubscribe проверяет, что у пользователя ещё нет активной подписки.
func CanSubscribe(active *models.Subscription) error {
	if active != nil && active.Active {
		return apperr.Conflict("subscription already active")
	}
	return nil
}
