// Package mine — HTTP-обработчик сделок, где вызывающий бренд или креатор.
package mine

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
	MyDeals(ctx context.Context, p models.Principal) ([]models.DealView, error)
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
// @Summary Мои сделки
// @Tags Deals
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=[]models.DealView}
// @Router /deals/mine [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deals.mine"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	deals, err := h.service.MyDeals(r.Context(), p)
	if err != nil {
		request.Fail(w, r, log, "failed to list own deals", err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(deals))
}
