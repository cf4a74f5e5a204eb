// Package paymentcreate — HTTP-обработчик оплаты сделки брендом.
// В ответ возвращается URL checkout-сессии провайдера.
package paymentcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/collab-deals/internal/http/request"
	"github.com/magabrotheeeer/collab-deals/internal/http/response"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

type Service interface {
	CreateDealCheckout(ctx context.Context, p models.Principal, dealID int64) (*models.CheckoutSession, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оплатить сделку
// @Description Создаёт checkout-сессию на сумму сделки плюс 9% комиссии платформы.
// @Tags Payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.CreatePaymentRequest true "Сделка"
// @Success 200 {object} response.Response{data=models.CheckoutSession}
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Сделка не ждёт оплаты"
// @Failure 502 {object} response.ErrorResponse "Ошибка провайдера"
// @Router /create-payment-intent [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	var req models.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		request.BadRequest(w, r, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	session, err := h.service.CreateDealCheckout(r.Context(), p, req.DealID)
	if err != nil {
		request.Fail(w, r, log, "failed to create deal checkout", err)
		return
	}

	log.Info("deal checkout created", sl.DealID(req.DealID))
	render.JSON(w, r, response.StatusOKWithData(session))
}
