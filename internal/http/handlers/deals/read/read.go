// Package read — HTTP-обработчик карточки сделки.
package read

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
	GetDeal(ctx context.Context, p models.Principal, id int64) (*models.DealView, error)
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
// @Summary Карточка сделки
// @Tags Deals
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID сделки"
// @Success 200 {object} response.Response{data=models.DealView}
// @Failure 404 {object} response.ErrorResponse
// @Router /deals/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deals.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	id, err := request.IDParam(r, "id")
	if err != nil {
		log.Warn("invalid deal id", sl.Err(err))
		request.BadRequest(w, r, "invalid deal id")
		return
	}

	deal, err := h.service.GetDeal(r.Context(), p, id)
	if err != nil {
		request.Fail(w, r, log, "failed to get deal", err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(deal))
}
