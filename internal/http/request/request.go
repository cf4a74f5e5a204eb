// Package request — общие шаги разбора HTTP-запроса в обработчиках.
package request

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/collab-deals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/collab-deals/internal/http/response"
	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

// ErrInvalidID — параметр пути не является положительным целым.
var ErrInvalidID = errors.New("invalid id")

// IDParam читает положительный int64 из параметра пути.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// Principal достаёт вызывающего из контекста. Если его нет, сам пишет 401.
func Principal(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.Principal, bool) {
	p, ok := middlewarectx.PrincipalFrom(r.Context())
	if !ok {
		log.Error("principal missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.KindError(apperr.KindUnauthorized, "unauthorized"))
		return models.Principal{}, false
	}
	return p, true
}

// Fail логирует ошибку сервиса и пишет ответ. Отказы клиенту логируются как Warn.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, msg string, err error) {
	if response.StatusFor(apperr.KindOf(err)) >= http.StatusInternalServerError {
		log.Error(msg, sl.Err(err))
	} else {
		log.Warn(msg, sl.Err(err))
	}
	response.WriteError(w, r, err)
}

// BadRequest пишет 400 с видом validation.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.KindError(apperr.KindValidation, msg))
}
