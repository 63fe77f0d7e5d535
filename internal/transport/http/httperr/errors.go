// httperr стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает доменную ошибку (сентинелы пакета service),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Бизнес-статусы получают только категории Auth/RateLimit/VCode/Validation;
// всё остальное сворачивается в 500 после логирования на стороне сервера.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/game-center/account-service/internal/service"
)

// Прикладные коды для состояний, у которых в исходном протоколе были
// нестандартные статусы; net/http такие статусы не пишет, поэтому код
// уезжает в тело ответа.
const (
	AppCodeUserNotEnabled = 10003
	AppCodeUserExist      = 10004
)

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// AppCode — прикладной код (если есть).
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	AppCode   int    `json:"app_code,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный ответ.
//
// Маппинг:
//   - ErrLoginFail / ErrJWTVerifyFailed / ErrVCodeNotMatch -> 401;
//   - ErrUserNotEnabled -> 403 + app_code 10003;
//   - ErrUserExist -> 409 + app_code 10004;
//   - ErrVCodeSentTooFrequently -> 403;
//   - ErrNoneUserID -> 400;
//   - прочее (включая nil) -> 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	switch {
	case err == nil:
		return internal()
	case errors.Is(err, service.ErrLoginFail):
		return respond(http.StatusUnauthorized, "login_fail", 0, "invalid email or password")
	case errors.Is(err, service.ErrJWTVerifyFailed):
		return respond(http.StatusUnauthorized, "jwt_verify_failed", 0, "token verification failed")
	case errors.Is(err, service.ErrVCodeNotMatch):
		return respond(http.StatusUnauthorized, "vcode_not_match", 0, "verification code does not match")
	case errors.Is(err, service.ErrUserNotEnabled):
		return respond(http.StatusForbidden, "user_not_enabled", AppCodeUserNotEnabled, "user is not enabled")
	case errors.Is(err, service.ErrVCodeSentTooFrequently):
		return respond(http.StatusForbidden, "vcode_sent_too_frequently", 0, "verification code sent too frequently")
	case errors.Is(err, service.ErrUserExist):
		return respond(http.StatusConflict, "user_exist", AppCodeUserExist, "user already exists")
	case errors.Is(err, service.ErrNoneUserID):
		return respond(http.StatusBadRequest, "none_user_id", 0, "user has no id")
	default:
		return internal()
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)
	write(w, r, status, resp)
}

// WriteTooManyRequests пишет ответ о превышении лимита запросов.
func WriteTooManyRequests(w http.ResponseWriter, r *http.Request) {
	write(w, r, http.StatusTooManyRequests, ErrorResponse{
		Error: APIError{
			Code:    "too_many_requests",
			Message: "too many requests",
		},
	})
}

// WriteInternal пишет генерический 500 без деталей.
func WriteInternal(w http.ResponseWriter, r *http.Request) {
	status, resp := internal()
	write(w, r, status, resp)
}

// WriteValidation пишет 400 c агрегированными ошибками валидации —
// по одной строке "field: message" на каждое невалидное поле.
func WriteValidation(w http.ResponseWriter, r *http.Request, lines []string) {
	write(w, r, http.StatusBadRequest, ErrorResponse{
		Error: APIError{
			Code:    "validation",
			Message: strings.Join(lines, "\n"),
		},
	})
}

func respond(status int, code string, appCode int, msg string) (int, ErrorResponse) {
	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			AppCode: appCode,
			Message: msg,
		},
	}
}

func internal() (int, ErrorResponse) {
	return respond(http.StatusInternalServerError, "internal", 0, "internal error")
}

func write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	// Прокидываем request_id, чтобы клиент мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
