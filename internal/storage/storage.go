// storage задаёт контракт справочника пользователей.
// Ядро аутентификации обращается к нему только через этот узкий интерфейс.
package storage

import (
	"context"
	"errors"

	"github.com/game-center/account-service/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser сохраняет пользователя (upsert по id).
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	Close()
}
