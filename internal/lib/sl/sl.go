// Package sl содержит вспомогательные функции для логгера slog:
// единообразные атрибуты для ошибок и идентификаторов предметной области.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки. Для nil пишется пустая строка,
// чтобы вызов в ветке без ошибки не паниковал.
//
// Пример:
//
//	log.Error("failed to accept deal", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func UserID(id int64) slog.Attr {
	return slog.Int64("user_id", id)
}

func DealID(id int64) slog.Attr {
	return slog.Int64("deal_id", id)
}
