package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/game-center/account-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Метки типа токена в клейме typ.
const (
	tokenTypeAuth    = "auth"
	tokenTypeRefresh = "refresh"
)

// AuthClaims — клеймы access-токена. Потребляются гвардами маршрутов.
type AuthClaims struct {
	Authorities []string `json:"Authorities,omitempty"`
	Typ         string   `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims — клеймы refresh-токена. ExpiresAt — абсолютный потолок
// жизни сессии: при ротации он сохраняется (см. RotateRefreshToken).
type RefreshClaims struct {
	Typ string `json:"typ"`
	jwt.RegisteredClaims
}

// IssueAuthToken выпускает access-токен: exp = iat + настроенное время
// жизни, nbf = iat. Пустой jti не попадает в клеймы.
func (s *Service) IssueAuthToken(subject, jti string, authorities []string) (models.SignedToken, error) {
	const op = "service.token.IssueAuthToken"

	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.JWTExpire())

	claims := AuthClaims{
		Authorities: authorities,
		Typ:         tokenTypeAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	return s.sign(op, claims, expiresAt, now)
}

// IssueRefreshToken выпускает refresh-токен с тем же временем жизни.
func (s *Service) IssueRefreshToken(subject, jti string) (models.SignedToken, error) {
	const op = "service.token.IssueRefreshToken"

	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.JWTExpire())

	claims := RefreshClaims{
		Typ: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	return s.sign(op, claims, expiresAt, now)
}

// RotateRefreshToken выпускает новый refresh-токен на основе старых клеймов.
// ExpiresAt исходного токена сохраняется — суммарная жизнь сессии ограничена
// независимо от числа ротаций; iat/nbf/jti обновляются.
func (s *Service) RotateRefreshToken(old RefreshClaims, jti string) (models.SignedToken, error) {
	const op = "service.token.RotateRefreshToken"

	now := time.Now().UTC()

	claims := RefreshClaims{
		Typ: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   old.Subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: old.ExpiresAt,
		},
	}

	return s.sign(op, claims, old.ExpiresAt.Time, now)
}

// VerifyAuthToken проверяет access-токен: подпись HS256, временное окно
// и метку typ. Любая невалидность сводится к ErrJWTVerifyFailed.
func (s *Service) VerifyAuthToken(tokenStr string) (*AuthClaims, error) {
	const op = "service.token.VerifyAuthToken"

	var claims AuthClaims
	if err := s.parse(tokenStr, &claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if claims.Typ != tokenTypeAuth {
		return nil, fmt.Errorf("%s: %w", op, ErrJWTVerifyFailed)
	}

	return &claims, nil
}

// VerifyRefreshToken проверяет refresh-токен.
func (s *Service) VerifyRefreshToken(tokenStr string) (*RefreshClaims, error) {
	const op = "service.token.VerifyRefreshToken"

	var claims RefreshClaims
	if err := s.parse(tokenStr, &claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if claims.Typ != tokenTypeRefresh {
		return nil, fmt.Errorf("%s: %w", op, ErrJWTVerifyFailed)
	}

	return &claims, nil
}

// sign подписывает клеймы и собирает SignedToken.
func (s *Service) sign(op string, claims jwt.Claims, expiresAt, notBefore time.Time) (models.SignedToken, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTKey))
	if err != nil {
		return models.SignedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.SignedToken{
		Token:     signed,
		ExpiresAt: expiresAt.Unix(),
		NotBefore: notBefore.Unix(),
	}, nil
}

// parse разбирает и валидирует токен в переданные клеймы.
func (s *Service) parse(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}

			return []byte(s.cfg.JWTKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	if err != nil || !token.Valid {
		return ErrJWTVerifyFailed
	}

	return nil
}
