package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/game-center/account-service/internal/service"
	"github.com/go-playground/validator/v10"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	Service *service.Service

	validate *validator.Validate
}

func New(s *service.Service) *Handlers {
	return &Handlers{
		Service:  s,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через httperr.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// validateStruct прогоняет структуру через validator и собирает ошибки
// в строки вида "field: message" — по одной на невалидное поле.
// Пустой срез означает успех.
func (h *Handlers) validateStruct(value any) []string {
	err := h.validate.Struct(value)
	if err == nil {
		return nil
	}

	var verr validator.ValidationErrors
	if !errors.As(err, &verr) {
		return []string{"request: invalid"}
	}

	lines := make([]string, 0, len(verr))
	for _, fe := range verr {
		lines = append(lines, fmt.Sprintf("%s: failed on %q", fe.Field(), fe.Tag()))
	}
	return lines
}
