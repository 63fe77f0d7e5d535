package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/game-center/account-service/internal/models"
	logctx "github.com/game-center/account-service/internal/pkg/log"
	"github.com/game-center/account-service/internal/storage"
	"github.com/google/uuid"
)

// Login выполняет вход по email+пароль.
//
// Цепочка проверок: поиск по email → наличие id → пароль → статус.
// Неизвестный email и неверный пароль дают одну и ту же ошибку
// ErrLoginFail. На успехе новый идентификатор сессии добавляется в
// список пользователя (старые вытесняются сверх лимита), пользователь
// сохраняется и выпускается пара токенов.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	const op = "service.auth.Login"

	lg := logctx.From(ctx)

	user, err := s.storage.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrLoginFail)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.ID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoneUserID)
	}

	if !s.encoder.Matches(password, user.PasswordHash) {
		return nil, fmt.Errorf("%s: %w", op, ErrLoginFail)
	}

	if user.Status == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotEnabled)
	}

	jti := uuid.NewString()
	user.SessionIDs = append(user.SessionIDs, jti)
	for len(user.SessionIDs) > s.cfg.MaxLoginCount {
		user.SessionIDs = user.SessionIDs[1:]
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.storage.SaveUser(ctx, user); err != nil {
		lg.Error("login_save_user_failed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.issueTokens(ctx, user, jti)
}

// RefreshSession обновляет пару токенов по refresh-токену.
//
// Предъявленный jti обязан находиться в списке активных сессий
// пользователя; на успехе он заменяется новым на том же месте, а
// refresh-токен ротируется с сохранением исходного expiry.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (*models.LoginResult, error) {
	const op = "service.auth.RefreshSession"

	claims, err := s.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrJWTVerifyFailed)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrJWTVerifyFailed)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.Status == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotEnabled)
	}

	slot := -1
	for i, id := range user.SessionIDs {
		if id == claims.ID {
			slot = i
			break
		}
	}
	if slot == -1 {
		return nil, fmt.Errorf("%s: %w", op, ErrJWTVerifyFailed)
	}

	jti := uuid.NewString()
	user.SessionIDs[slot] = jti
	user.UpdatedAt = time.Now().UTC()

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	authorities, err := s.authorities.Authorities(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := s.IssueAuthToken(user.ID.String(), "", authorities)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rotated, err := s.RotateRefreshToken(*claims, jti)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: rotated,
		User:         user.Public(),
	}, nil
}

// Register создаёт нового пользователя после проверки кода подтверждения.
// Занятый email даёт ErrUserExist; пользователь создаётся включённым
// (status = 1).
func (s *Service) Register(ctx context.Context, username, email, password, vcode string) (*models.UserInfo, error) {
	const op = "service.auth.Register"

	normEmail := normalizeEmail(email)

	if err := s.VerifyVCode(ctx, normEmail, vcode); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUserExist)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.encoder.Encode(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        normEmail,
		PasswordHash: hash,
		Status:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExist)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	info := user.Public()
	return &info, nil
}

// issueTokens выпускает пару токенов для пользователя: access-токен с
// полномочиями и refresh-токен, несущий идентификатор сессии.
func (s *Service) issueTokens(ctx context.Context, user *models.User, jti string) (*models.LoginResult, error) {
	const op = "service.auth.issueTokens"

	authorities, err := s.authorities.Authorities(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := s.IssueAuthToken(user.ID.String(), "", authorities)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.IssueRefreshToken(user.ID.String(), jti)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
	}, nil
}

// normalizeEmail обрезает пробелы снаружи и приводит к нижнему регистру.
func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
