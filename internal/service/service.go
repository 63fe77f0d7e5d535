// service содержит бизнес-логику ядра аутентификации:
// вход/обновление сессии/регистрацию, выпуск и проверку токенов,
// коды подтверждения и работу с хранилищем через интерфейсы
// из пакетов storage/cache/mail.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования из разных горутин при условии, что
//     переданные зависимости потокобезопасны.
//   - Ошибки возвращаются наружу и далее маппятся транспортом на
//     HTTP-статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/game-center/account-service/internal/cache"
	"github.com/game-center/account-service/internal/config"
	"github.com/game-center/account-service/internal/mail"
	"github.com/game-center/account-service/internal/models"
	"github.com/game-center/account-service/internal/storage"
)

var (
	// ErrLoginFail — пользователь не найден или пароль неверен.
	// Единая ошибка для обоих случаев, чтобы не раскрывать существование
	// аккаунта. Транспорт: HTTP 401.
	ErrLoginFail = errors.New("login fail")

	// ErrUserNotEnabled — пользователь существует, но отключён (status == 0).
	// Транспорт: HTTP 403 + прикладной код 10003.
	ErrUserNotEnabled = errors.New("user not enabled")

	// ErrNoneUserID — у найденного пользователя отсутствует идентификатор.
	// Защитная проверка, для сохранённого пользователя случаться не должна.
	// Транспорт: HTTP 400.
	ErrNoneUserID = errors.New("none user id")

	// ErrJWTVerifyFailed — токен не прошёл проверку подписи, структуры
	// или временного окна. Транспорт: HTTP 401.
	ErrJWTVerifyFailed = errors.New("jwt verify failed")

	// ErrUserExist — email уже занят другим пользователем.
	// Транспорт: HTTP 409 + прикладной код 10004.
	ErrUserExist = errors.New("user already exists")

	// ErrVCodeSentTooFrequently — код уже отправлялся недавно, действует
	// защитный интервал. Транспорт: HTTP 403.
	ErrVCodeSentTooFrequently = errors.New("vcode sent too frequently")

	// ErrVCodeNotMatch — код отсутствует или не совпал.
	// Транспорт: HTTP 401.
	ErrVCodeNotMatch = errors.New("vcode not match")

	// ErrHashing — ошибка алгоритма хэширования пароля.
	// Транспорт: HTTP 500.
	ErrHashing = errors.New("password hashing failed")
)

// AuthorityProvider отдаёт список полномочий пользователя.
// Список непрозрачен для ядра: его семантику определяет внешний
// источник авторизации.
type AuthorityProvider interface {
	Authorities(ctx context.Context, user *models.User) ([]string, error)
}

// statusAuthorities — провайдер по умолчанию: числовой status
// разворачивается в список "0".."status-1".
type statusAuthorities struct{}

func (statusAuthorities) Authorities(_ context.Context, user *models.User) ([]string, error) {
	authorities := make([]string, 0, user.Status)
	for i := int64(0); i < user.Status; i++ {
		authorities = append(authorities, strconv.FormatInt(i, 10))
	}

	return authorities, nil
}

// Service описывает бизнес-логику ядра аутентификации.
type Service struct {
	storage     storage.Storage
	cache       cache.Cache
	mailer      mail.Mailer
	encoder     *PasswordEncoder
	authorities AuthorityProvider
	cfg         config.AuthConfig
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, c cache.Cache, m mail.Mailer, enc *PasswordEncoder, cfg config.AuthConfig) *Service {
	return &Service{
		storage:     st,
		cache:       c,
		mailer:      m,
		encoder:     enc,
		authorities: statusAuthorities{},
		cfg:         cfg,
	}
}

// SetAuthorityProvider заменяет источник полномочий (опционально).
func (s *Service) SetAuthorityProvider(p AuthorityProvider) {
	if p != nil {
		s.authorities = p
	}
}
