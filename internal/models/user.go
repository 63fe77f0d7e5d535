package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя в системе.
//
// Status: 0 — пользователь отключён; >=1 — включён, значение задаёт число
// доступных ему полномочий (см. service.AuthorityProvider).
// SessionIDs — ограниченный список активных идентификаторов сессий (jti);
// при входе новый id добавляется в конец, самые старые вытесняются,
// пока длина не уложится в MAX_LOGIN_COUNT.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Status       int64
	SessionIDs   []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserInfo — публичная проекция пользователя, отдаваемая наружу.
// Не содержит хэша пароля и списка сессий.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Status   int64  `json:"status"`
}

// Public возвращает публичную проекцию пользователя.
func (u *User) Public() UserInfo {
	return UserInfo{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		Status:   u.Status,
	}
}
