// Package auth — регистрация, вход и проверка токенов доступа.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/collab-deals/internal/lib/apperr"
	"github.com/magabrotheeeer/collab-deals/internal/lib/jwt"
	"github.com/magabrotheeeer/collab-deals/internal/lib/password"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Service отвечает за регистрацию, вход и разбор токенов.
type Service struct {
	log      *slog.Logger
	users    UserRepository
	jwtMaker jwt.Maker
}

func New(log *slog.Logger, users UserRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		log:      log,
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Signup регистрирует пользователя. Роль после регистрации не меняется.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.UserProjection, error) {
	const op = "auth.Signup"

	if !req.Role.Valid() {
		return nil, apperr.Validation("role must be creator or brand")
	}
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" {
		return nil, apperr.Validation("name and email are required")
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, apperr.Validation("password is too long")
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.ID = id

	s.log.Info("user registered", sl.UserID(id), slog.String("role", string(user.Role)))
	return user.Projection(), nil
}

// Login проверяет email и пароль и выдаёт токен.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (string, *models.UserProjection, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = password.CompareHash(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Error("stored password hash is broken", sl.UserID(user.ID), sl.Err(err))
		}
		return "", nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Projection(), nil
}

// Authenticate разбирает токен и загружает пользователя,
// чтобы признак подписки в Principal был актуальным.
func (s *Service) Authenticate(ctx context.Context, token string) (models.Principal, error) {
	const op = "auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return models.Principal{}, apperr.Unauthorized("invalid or expired token")
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Principal{}, apperr.Unauthorized("user not found")
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Principal{
		UserID:          user.ID,
		Role:            user.Role,
		HasSubscription: user.HasSubscription,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
