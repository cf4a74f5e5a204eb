package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/collab-deals/internal/models"
)

// Authenticator проверяет токен и возвращает вызывающего.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Principal, error)
}
