package service

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Параметры калибровки стоимости bcrypt.
const (
	// calibrationTarget — целевая длительность одного хэширования.
	calibrationTarget = 1000 * time.Millisecond
	// calibrationProbe — фиксированная строка для замеров.
	calibrationProbe = "password"
)

// PasswordEncoder хэширует и проверяет пароли через bcrypt с
// откалиброванной под текущее железо стоимостью.
//
// Калибровка выполняется один раз при конструировании и намеренно
// блокирует старт процесса; выбранная стоимость далее неизменна.
type PasswordEncoder struct {
	cost int
}

// NewPasswordEncoder подбирает стоимость bcrypt: начиная с минимальной,
// хэширует пробную строку и повышает стоимость на шаг, пока длительность
// не превысит целевую (1000 мс) либо стоимость не достигнет максимума (31).
func NewPasswordEncoder() *PasswordEncoder {
	return newPasswordEncoder(calibrationTarget, bcrypt.MaxCost)
}

// NewPasswordEncoderWithCost создаёт энкодер с фиксированной стоимостью,
// минуя калибровку. Значение приводится к допустимому диапазону bcrypt.
func NewPasswordEncoderWithCost(cost int) *PasswordEncoder {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	return &PasswordEncoder{cost: cost}
}

func newPasswordEncoder(target time.Duration, maxCost int) *PasswordEncoder {
	cost := bcrypt.MinCost

	for {
		start := time.Now()
		if _, err := bcrypt.GenerateFromPassword([]byte(calibrationProbe), cost); err != nil {
			slog.Error("password_calibration_failed",
				slog.Int("cost", cost),
				slog.String("err", err.Error()),
			)
			break
		}
		elapsed := time.Since(start)

		if elapsed > target {
			slog.Info("password_cost_selected",
				slog.Int("cost", cost),
				slog.Duration("hash_time", elapsed),
			)
			break
		}

		if cost >= maxCost {
			slog.Warn("password_cost_capped",
				slog.Int("cost", cost),
				slog.Duration("hash_time", elapsed),
			)
			break
		}

		cost++
	}

	return &PasswordEncoder{cost: cost}
}

// Cost возвращает откалиброванную стоимость.
func (e *PasswordEncoder) Cost() int { return e.cost }

// Encode хэширует пароль с откалиброванной стоимостью.
func (e *PasswordEncoder) Encode(password string) (string, error) {
	const op = "service.password.Encode"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), e.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrHashing, err)
	}

	return string(bytes), nil
}

// Matches сравнивает пароль с хэшем. Стоимость при проверке берётся
// из самого хэша и откалиброванное значение не меняет.
func (e *PasswordEncoder) Matches(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
