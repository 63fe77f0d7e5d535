package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты кэша: поднимают реальный Redis через
// testcontainers-go (образ redis:7-alpine) и проверяют семантику
// Get/SetWithTTL/SetIfAbsent*/DeleteIfEquals, включая атомарность
// DeleteIfEquals (Lua-скрипт) и истечение TTL.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/cache -v -race -count=1

// startRedis — поднимает временный Redis и возвращает кэш с функцией очистки.
// Без GO_TEST_INTEGRATION тест пропускается.
func startRedis(t *testing.T) (Cache, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "6379/tcp")
	url := fmt.Sprintf("redis://%s:%s/0", host, port.Port())

	cch, err := NewRedisCache(ctx, url)
	require.NoError(t, err)

	cleanup := func() {
		_ = cch.Close()
		_ = c.Terminate(context.Background())
	}
	return cch, cleanup
}

func TestIntegration_GetSet_OK(t *testing.T) {
	cch, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	_, ok, err := cch.Get(ctx, "absent")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cch.SetWithTTL(ctx, "k", "v", time.Minute))

	got, ok, err := cch.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", got)
}

func TestIntegration_SetWithTTL_Expires(t *testing.T) {
	cch, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cch.SetWithTTL(ctx, "ephemeral", "v", 500*time.Millisecond))

	time.Sleep(time.Second)

	_, ok, err := cch.Get(ctx, "ephemeral")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIntegration_SetIfAbsent_Semantics(t *testing.T) {
	cch, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()

	created, err := cch.SetIfAbsentWithTTL(ctx, "guard", "1", time.Minute)
	require.NoError(t, err)
	require.True(t, created)

	// Повторная установка того же ключа не проходит и не меняет значение.
	created, err = cch.SetIfAbsentWithTTL(ctx, "guard", "2", time.Minute)
	require.NoError(t, err)
	require.False(t, created)

	got, ok, err := cch.Get(ctx, "guard")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", got)
}

func TestIntegration_DeleteIfEquals_Semantics(t *testing.T) {
	cch, cleanup := startRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cch.SetWithTTL(ctx, "code", "AB12CD", time.Minute))

	// Неверное значение не удаляет ключ.
	deleted, err := cch.DeleteIfEquals(ctx, "code", "WRONG1")
	require.NoError(t, err)
	require.False(t, deleted)

	_, ok, err := cch.Get(ctx, "code")
	require.NoError(t, err)
	require.True(t, ok)

	// Совпавшее значение удаляется, второй раз не проходит.
	deleted, err = cch.DeleteIfEquals(ctx, "code", "AB12CD")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = cch.DeleteIfEquals(ctx, "code", "AB12CD")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestIntegration_NewRedisCache_BadURL(t *testing.T) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	_, err := NewRedisCache(context.Background(), "not-a-url")
	require.Error(t, err)
}
