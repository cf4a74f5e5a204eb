// Package register — HTTP-обработчик регистрации бренда или креатора.
package register

import (
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

// Response — тело успешной регистрации.
type Response struct {
	Success bool                   `json:"success"`
	User    *models.UserProjection `json:"user"`
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
// @Summary Регистрация
// @Description Создаёт пользователя с ролью creator или brand. Роль потом не меняется.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Данные пользователя"
// @Success 201 {object} response.Response{data=Response}
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Router /auth/signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SignupRequest
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

	user, err := h.service.Signup(r.Context(), req)
	if err != nil {
		request.Fail(w, r, log, "signup failed", err)
		return
	}

	log.Info("user registered", sl.UserID(user.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(Response{Success: true, User: user}))
}
