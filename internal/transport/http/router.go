package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/game-center/account-service/internal/cache"
	"github.com/game-center/account-service/internal/service"
	"github.com/game-center/account-service/internal/transport/http/handlers"
	"github.com/game-center/account-service/internal/transport/http/middleware"
)

// Параметры лимитера для чувствительных маршрутов (login, отправка кода).
const (
	sensitiveLimit  = 10
	sensitiveWindow = time.Minute
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, c cache.Cache, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Зависимости хендлеров.
	h := handlers.New(svc)
	rl := middleware.RateLimit(c, sensitiveLimit, sensitiveWindow)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, rl)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, rl)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, rl middleware.Middleware) {
	// auth
	r.With(rl).Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/register", h.Register)

	// vcode
	r.With(rl).Post("/vcode/send", h.SendCode)
	r.Post("/vcode/verify", h.VerifyCode)
}
