// mail — транспорт доставки писем с кодами подтверждения.
//
// Два варианта: SMTPMailer поверх одного SMTP-клиента (отправки
// сериализуются мьютексом) и LogMailer, который вместо отправки пишет
// содержимое в лог. Вариант выбирается конфигурацией при сборке сервиса.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/game-center/account-service/internal/config"
	logctx "github.com/game-center/account-service/internal/pkg/log"
	gomail "github.com/wneessen/go-mail"
)

// Mailer — контракт почтового транспорта.
type Mailer interface {
	// Send доставляет письмо с HTML-телом получателю.
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer держит один SMTP-клиент; конкурентные отправки
// выстраиваются в очередь на мьютексе, а не открывают новые соединения.
type SMTPMailer struct {
	mu     sync.Mutex
	client *gomail.Client
	from   string
}

// NewSMTP создаёт SMTP-транспорт из конфигурации.
func NewSMTP(cfg config.MailConfig) (*SMTPMailer, error) {
	const op = "mail.NewSMTP"

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSSL(),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &SMTPMailer{client: client, from: from}, nil
}

// Send отправляет письмо. Ошибки не ретраятся — они поднимаются вызывающему.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	const op = "mail.SMTPMailer.Send"

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// LogMailer — no-op транспорт: вместо отправки пишет письмо в лог.
type LogMailer struct{}

// NewLog создаёт логирующий транспорт.
func NewLog() *LogMailer { return &LogMailer{} }

// Send пишет содержимое письма в лог и всегда успешен.
func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	logctx.From(ctx).Warn("mail_not_sent",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", htmlBody),
	)

	return nil
}

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
