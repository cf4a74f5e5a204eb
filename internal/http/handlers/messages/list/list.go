// Package list — HTTP-обработчик переписки по сделке.
package list

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
	ListMessages(ctx context.Context, p models.Principal, dealID int64) ([]models.MessageView, error)
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
// @Summary Переписка по сделке
// @Description Сообщения в порядке отправки. Доступно только участникам сделки.
// @Tags Messages
// @Security BearerAuth
// @Produce json
// @Param dealId path int true "ID сделки"
// @Success 200 {object} response.Response{data=[]models.MessageView}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /messages/{dealId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.messages.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	dealID, err := request.IDParam(r, "dealId")
	if err != nil {
		log.Warn("invalid deal id", sl.Err(err))
		request.BadRequest(w, r, "invalid deal id")
		return
	}

	messages, err := h.service.ListMessages(r.Context(), p, dealID)
	if err != nil {
		request.Fail(w, r, log, "failed to list messages", err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(messages))
}
