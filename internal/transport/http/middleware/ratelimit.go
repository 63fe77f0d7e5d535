package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/game-center/account-service/internal/cache"
	logctx "github.com/game-center/account-service/internal/pkg/log"
	"github.com/game-center/account-service/internal/transport/http/httperr"
)

// rlKeyPrefix — префикс ключей счётчиков лимитера.
const rlKeyPrefix = "rl:"

// RateLimit ограничивает частоту запросов на пару клиент+путь.
//
// Счётчик живёт в кэше: до обработки читается текущее значение; limit и
// выше — 429 без вызова обработчика. Иначе пишется значение+1 с TTL = window
// (окно продлевается каждым пропущенным запросом). Проверка и запись не
// атомарны — при гонке лимит может быть слегка превышен, это осознанный
// размен в пользу простоты. Ошибки кэша в обе стороны дают 500.
func RateLimit(c cache.Cache, limit int, window time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rlKeyPrefix + clientIP(r) + ":" + r.URL.Path

			val, ok, err := c.Get(r.Context(), key)
			if err != nil {
				logctx.From(r.Context()).Error("ratelimit_get_failed",
					slog.String("key", key),
					slog.String("err", err.Error()),
				)
				httperr.WriteInternal(w, r)
				return
			}

			count := 0
			if ok {
				// Нечисловое значение трактуем как 0 — ключ перезапишется ниже.
				count, _ = strconv.Atoi(val)
			}

			if count >= limit {
				httperr.WriteTooManyRequests(w, r)
				return
			}

			if err := c.SetWithTTL(r.Context(), key, strconv.Itoa(count+1), window); err != nil {
				logctx.From(r.Context()).Error("ratelimit_set_failed",
					slog.String("key", key),
					slog.String("err", err.Error()),
				)
				httperr.WriteInternal(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP извлекает адрес клиента: первый элемент X-Forwarded-For,
// затем X-Real-Ip, затем host-часть RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			xff = xff[:idx]
		}
		return strings.TrimSpace(xff)
	}

	if rip := r.Header.Get("X-Real-Ip"); rip != "" {
		return strings.TrimSpace(rip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
