// Package create — HTTP-обработчик публикации сделки брендом.
package create

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
	CreateDeal(ctx context.Context, p models.Principal, req models.CreateDealRequest) (*models.Deal, error)
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
// @Summary Новая сделка
// @Description Владельцем сделки становится вызывающий бренд.
// @Tags Deals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.CreateDealRequest true "Сделка"
// @Success 201 {object} response.Response{data=models.Deal}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "Только для брендов"
// @Router /deals [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deals.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	var req models.CreateDealRequest
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

	deal, err := h.service.CreateDeal(r.Context(), p, req)
	if err != nil {
		request.Fail(w, r, log, "failed to create deal", err)
		return
	}

	log.Info("deal created", sl.DealID(deal.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(deal))
}
