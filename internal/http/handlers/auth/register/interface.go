package register

import (
	"context"

	"github.com/magabrotheeeer/collab-deals/internal/models"
)

// Service регистрирует пользователей.
type Service interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.UserProjection, error)
}
