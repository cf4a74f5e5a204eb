// Package subscriptioncreate — HTTP-обработчик оформления подписки на поиск.
package subscriptioncreate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/collab-deals/internal/http/request"
	"github.com/magabrotheeeer/collab-deals/internal/http/response"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

type Service interface {
	CreateSubscriptionCheckout(ctx context.Context, p models.Principal) (*models.CheckoutSession, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Оформить подписку
// @Tags Payments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=models.CheckoutSession}
// @Failure 409 {object} response.ErrorResponse "Подписка уже активна"
// @Failure 502 {object} response.ErrorResponse "Ошибка провайдера"
// @Router /create-subscription [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.subscriptioncreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	session, err := h.service.CreateSubscriptionCheckout(r.Context(), p)
	if err != nil {
		request.Fail(w, r, log, "failed to create subscription checkout", err)
		return
	}

	log.Info("subscription checkout created", sl.UserID(p.UserID))
	render.JSON(w, r, response.StatusOKWithData(session))
}
