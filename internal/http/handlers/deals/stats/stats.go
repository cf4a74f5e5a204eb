// Package stats — HTTP-обработчик сводки по сделкам вызывающего.
package stats

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
	Stats(ctx context.Context, p models.Principal) (models.DealStats, error)
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
// @Summary Статистика сделок
// @Tags Deals
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=models.DealStats}
// @Router /stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deals.stats"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), p)
	if err != nil {
		request.Fail(w, r, log, "failed to count deals", err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(stats))
}
