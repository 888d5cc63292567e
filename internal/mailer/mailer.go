// Package mailer отправляет письма со ссылкой для сброса пароля.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

const resetSubject = "NoteKeeper password reset"

// SMTPConfig: параметры SMTP-сервера.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// sendFunc совпадает с smtp.SendMail, подменяется в тестах.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer отправляет письма через SMTP с PlainAuth.
type SMTPMailer struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{to}, buildMessage(m.cfg.From, to, resetSubject, resetBody(link))); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer только пишет ссылку в лог. Используется, когда SMTP не настроен.
type LogMailer struct {
	logger *zap.SugaredLogger
}

func NewLogMailer(logger *zap.SugaredLogger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.logger.Infow("password reset requested", "to", to, "link", link)
	return nil
}

func resetBody(link string) string {
	return "You requested a password reset.\n" +
		"Follow the link below within one hour to choose a new password:\n\n" +
		link + "\n\nIf you did not request it, ignore this email."
}

// buildMessage собирает письмо по RFC 5322, строки разделяются CRLF.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
