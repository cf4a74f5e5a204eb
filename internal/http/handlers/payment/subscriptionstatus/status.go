// Package subscriptionstatus — HTTP-обработчик статуса подписки.
package subscriptionstatus

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/collab-deals/internal/http/request"
	"github.com/magabrotheeeer/collab-deals/internal/http/response"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

type Service interface {
	SubscriptionStatus(ctx context.Context, p models.Principal) (*models.SubscriptionStatus, error)
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
// @Summary Статус подписки
// @Tags Payments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=models.SubscriptionStatus}
// @Router /subscription/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.subscriptionstatus"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	status, err := h.service.SubscriptionStatus(r.Context(), p)
	if err != nil {
		request.Fail(w, r, log, "failed to fetch subscription status", err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(status))
}
