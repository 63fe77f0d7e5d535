package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/game-center/account-service/internal/mail"
	logctx "github.com/game-center/account-service/internal/pkg/log"
)

const (
	// vcodeKeyPrefix — ключ хранения кода по email.
	vcodeKeyPrefix = "vcode:email:"
	// vcodeGuardPrefix — маркер недавней отправки (resend guard).
	vcodeGuardPrefix = "vcode:sent:"
	// vcodeLength — длина кода подтверждения.
	vcodeLength = 6

	vcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	vcodeSubject = "Verification code"
)

// SendVCode отправляет одноразовый код подтверждения на email.
//
// Поток: маркер повторной отправки ставится атомарно (set-if-absent с
// TTL = окно/10); существующий маркер означает недавнюю отправку —
// ErrVCodeSentTooFrequently, ничего больше не происходит. Иначе
// генерируется код, доставляется транспортом и сохраняется в верхнем
// регистре с TTL = окно. Новый код перезаписывает предыдущий.
func (s *Service) SendVCode(ctx context.Context, email string) error {
	const op = "service.vcode.SendVCode"

	lg := logctx.From(ctx)

	email = normalizeEmail(email)
	guardTTL := s.cfg.VCodeExpire() / 10

	created, err := s.cache.SetIfAbsentWithTTL(ctx, vcodeGuardPrefix+email, "1", guardTTL)
	if err != nil {
		lg.Error("vcode_guard_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	if !created {
		return fmt.Errorf("%s: %w", op, ErrVCodeSentTooFrequently)
	}

	code, err := generateVCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	expireMinutes := int(s.cfg.VCodeExpire().Minutes())
	body, err := mail.RenderVCodeBody(code, expireMinutes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.mailer.Send(ctx, email, vcodeSubject, body); err != nil {
		lg.Error("vcode_send_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetWithTTL(ctx, vcodeKeyPrefix+email, strings.ToUpper(code), s.cfg.VCodeExpire()); err != nil {
		lg.Error("vcode_store_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// VerifyVCode проверяет код подтверждения для email.
//
// Сравнение регистронезависимое (оба значения в верхнем регистре);
// совпавший код удаляется атомарно с проверкой — повторное предъявление
// того же кода даёт ErrVCodeNotMatch.
func (s *Service) VerifyVCode(ctx context.Context, email, code string) error {
	const op = "service.vcode.VerifyVCode"

	matched, err := s.cache.DeleteIfEquals(ctx, vcodeKeyPrefix+normalizeEmail(email), strings.ToUpper(code))
	if err != nil {
		logctx.From(ctx).Error("vcode_verify_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	if !matched {
		return fmt.Errorf("%s: %w", op, ErrVCodeNotMatch)
	}

	return nil
}

// generateVCode генерирует случайный код из vcodeLength алфавитно-цифровых
// символов.
func generateVCode() (string, error) {
	const op = "service.vcode.generateVCode"

	var sb strings.Builder
	max := big.NewInt(int64(len(vcodeAlphabet)))

	for i := 0; i < vcodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		sb.WriteByte(vcodeAlphabet[n.Int64()])
	}

	return sb.String(), nil
}
