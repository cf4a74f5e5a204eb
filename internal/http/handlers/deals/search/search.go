// Package search — HTTP-обработчик поиска открытых сделок. Доступен только по подписке.
package search

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
	SearchDeals(ctx context.Context, p models.Principal) ([]models.DealView, error)
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
// @Summary Поиск открытых сделок
// @Tags Deals
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=[]models.DealView}
// @Failure 403 {object} response.ErrorResponse "Нужна подписка (kind=subscription_required)"
// @Router /search [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deals.search"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	deals, err := h.service.SearchDeals(r.Context(), p)
	if err != nil {
		request.Fail(w, r, log, "search rejected", err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(deals))
}
