// Package paymentwebhook принимает вебхуки платёжного провайдера.
//
// 400 только при невалидной подписи или нечитаемом теле, иначе 200 {"received": true}.
package paymentwebhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/collab-deals/internal/http/request"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
)

// SignatureHeader — заголовок с подписью Stripe.
const SignatureHeader = "Stripe-Signature"

const maxBodyBytes = 1 << 16

type Service interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
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

// Ack — подтверждение получения события.
type Ack struct {
	Received bool `json:"received"`
}

// ServeHTTP godoc
// @Summary Вебхук Stripe
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Подпись"
// @Success 200 {object} Ack
// @Failure 400 {object} response.ErrorResponse "Невалидная подпись"
// @Router /stripe-webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		request.BadRequest(w, r, "failed to read body")
		return
	}

	if err := h.service.HandleWebhook(r.Context(), body, r.Header.Get(SignatureHeader)); err != nil {
		request.Fail(w, r, log, "webhook rejected", err)
		return
	}

	render.JSON(w, r, Ack{Received: true})
}
