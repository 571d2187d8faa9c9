package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer dispatches HTML email. Implementations must respect the context
// deadline set by the caller.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends mail over authenticated SMTP. When no credentials are
// configured it runs in dev mode and drops messages silently, so local
// development works without a mail account.
type SMTPMailer struct {
	cfg     Config
	devMode bool
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		devMode: cfg.Username == "" || cfg.Password == "",
	}
}

// DevMode reports whether messages are being dropped instead of sent.
func (m *SMTPMailer) DevMode() bool { return m.devMode }

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.devMode {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String()))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
