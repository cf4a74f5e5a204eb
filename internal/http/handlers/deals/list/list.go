// Package list — HTTP-обработчик ленты всех сделок.
package list

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
	ListDeals(ctx context.Context, p models.Principal) ([]models.DealView, error)
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
// @Summary Все сделки
// @Tags Deals
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=[]models.DealView}
// @Failure 401 {object} response.ErrorResponse
// @Router /deals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deals.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	deals, err := h.service.ListDeals(r.Context(), p)
	if err != nil {
		request.Fail(w, r, log, "failed to list deals", err)
		return
	}

	log.Debug("deals listed", slog.Int("count", len(deals)))
	render.JSON(w, r, response.StatusOKWithData(deals))
}
