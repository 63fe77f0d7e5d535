package models

// SignedToken — подписанный токен с границами действия.
//
// Token — непрозрачная строка для клиента; ExpiresAt/NotBefore — unix-секунды
// (UTC), дублируют границы из клеймов, чтобы клиент не разбирал JWT сам.
type SignedToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	NotBefore int64  `json:"not_before"`
}

// LoginResult — результат успешного входа: пара токенов и публичные данные
// пользователя.
type LoginResult struct {
	AccessToken  SignedToken `json:"access_token"`
	RefreshToken SignedToken `json:"refresh_token"`
	User         UserInfo    `json:"user"`
}
