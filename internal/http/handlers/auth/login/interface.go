package login

import (
	"context"

	"github.com/magabrotheeeer/collab-deals/internal/models"
)

// Service выполняет вход по email и паролю.
type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (string, *models.UserProjection, error)
}
