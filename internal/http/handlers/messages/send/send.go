// Package send — HTTP-обработчик отправки сообщения по сделке.
//
// Сообщения с почтой, телефоном или сторонними мессенджерами отклоняются
// с кодом 400 и видом blocked_content и не сохраняются.
package send

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

// Response — тело успешной отправки.
type Response struct {
	Success bool            `json:"success"`
	Message *models.Message `json:"message"`
}

type Service interface {
	SendMessage(ctx context.Context, p models.Principal, req models.SendMessageRequest) (*models.Message, error)
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
// @Summary Отправить сообщение
// @Tags Messages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.SendMessageRequest true "Сообщение"
// @Success 201 {object} response.Response{data=Response}
// @Failure 400 {object} response.ErrorResponse "Контакты вне платформы (kind=blocked_content)"
// @Failure 403 {object} response.ErrorResponse
// @Router /messages/send [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.messages.send"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := request.Principal(w, r, log)
	if !ok {
		return
	}

	var req models.SendMessageRequest
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

	msg, err := h.service.SendMessage(r.Context(), p, req)
	if err != nil {
		request.Fail(w, r, log, "message rejected", err)
		return
	}

	log.Info("message sent", sl.DealID(req.DealID), slog.Int64("message_id", msg.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(Response{Success: true, Message: msg}))
}
