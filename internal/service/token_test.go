package service

import (
	"testing"
	"time"

	"github.com/game-center/account-service/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testAuthCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTKey:             "unit-test-secret",
		JWTExpireSeconds:   3600,
		MaxLoginCount:      1,
		VCodeExpireSeconds: 300,
	}
}

// tokenSvc — сервис без зависимостей: токены трогают только cfg.
func tokenSvc(cfg config.AuthConfig) *Service {
	return New(nil, nil, nil, nil, cfg)
}

func TestIssueAuthToken_AndVerify_OK(t *testing.T) {
	t.Parallel()

	svc := tokenSvc(testAuthCfg())

	st, err := svc.IssueAuthToken("user-1", "", []string{"0", "1"})
	require.NoError(t, err)
	require.NotEmpty(t, st.Token)

	// exp = nbf + настроенное время жизни.
	require.Equal(t, int64(3600), st.ExpiresAt-st.NotBefore)

	claims, err := svc.VerifyAuthToken(st.Token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, []string{"0", "1"}, claims.Authorities)
	require.Empty(t, claims.ID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 2*time.Second)
}

func TestIssueRefreshToken_AndVerify_OK(t *testing.T) {
	t.Parallel()

	svc := tokenSvc(testAuthCfg())

	st, err := svc.IssueRefreshToken("user-1", "session-1")
	require.NoError(t, err)

	claims, err := svc.VerifyRefreshToken(st.Token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "session-1", claims.ID)
}

// Access-токен не проходит как refresh и наоборот: метка typ обязательна.
func TestVerifyToken_TypeMismatch(t *testing.T) {
	t.Parallel()

	svc := tokenSvc(testAuthCfg())

	at, err := svc.IssueAuthToken("user-1", "", nil)
	require.NoError(t, err)
	rt, err := svc.IssueRefreshToken("user-1", "s1")
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(at.Token)
	require.ErrorIs(t, err, ErrJWTVerifyFailed)

	_, err = svc.VerifyAuthToken(rt.Token)
	require.ErrorIs(t, err, ErrJWTVerifyFailed)
}

func TestVerifyAuthToken_WrongKey(t *testing.T) {
	t.Parallel()

	svc := tokenSvc(testAuthCfg())

	other := testAuthCfg()
	other.JWTKey = "another-secret"

	st, err := tokenSvc(other).IssueAuthToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = svc.VerifyAuthToken(st.Token)
	require.ErrorIs(t, err, ErrJWTVerifyFailed)
}

// Подпись чужим алгоритмом отклоняется ещё на выборе ключа.
func TestVerifyAuthToken_WrongAlg(t *testing.T) {
	t.Parallel()

	cfg := testAuthCfg()
	svc := tokenSvc(cfg)

	now := time.Now().UTC()
	claims := AuthClaims{
		Typ: tokenTypeAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(cfg.JWTKey))
	require.NoError(t, err)

	_, err = svc.VerifyAuthToken(signed)
	require.ErrorIs(t, err, ErrJWTVerifyFailed)
}

func TestVerifyAuthToken_Expired(t *testing.T) {
	t.Parallel()

	cfg := testAuthCfg()
	cfg.JWTExpireSeconds = -10 // exp в прошлом

	st, err := tokenSvc(cfg).IssueAuthToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = tokenSvc(testAuthCfg()).VerifyAuthToken(st.Token)
	require.ErrorIs(t, err, ErrJWTVerifyFailed)
}

func TestVerifyAuthToken_Garbage(t *testing.T) {
	t.Parallel()

	svc := tokenSvc(testAuthCfg())

	_, err := svc.VerifyAuthToken("not.a.token")
	require.ErrorIs(t, err, ErrJWTVerifyFailed)
}

// Ротация обновляет jti/iat/nbf, но сохраняет исходный потолок жизни.
func TestRotateRefreshToken_PreservesExpiry(t *testing.T) {
	t.Parallel()

	svc := tokenSvc(testAuthCfg())

	original, err := svc.IssueRefreshToken("user-1", "session-old")
	require.NoError(t, err)

	oldClaims, err := svc.VerifyRefreshToken(original.Token)
	require.NoError(t, err)

	rotated, err := svc.RotateRefreshToken(*oldClaims, "session-new")
	require.NoError(t, err)

	newClaims, err := svc.VerifyRefreshToken(rotated.Token)
	require.NoError(t, err)

	require.Equal(t, "session-new", newClaims.ID)
	require.Equal(t, "user-1", newClaims.Subject)
	require.Equal(t, oldClaims.ExpiresAt.Unix(), newClaims.ExpiresAt.Unix())
	require.Equal(t, original.ExpiresAt, rotated.ExpiresAt)
}
