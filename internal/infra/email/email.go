// Package email sends lead reports over SMTP. The sender is passed in
// explicitly wherever it is needed; nothing in here holds global state.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Config holds SMTP settings.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	ReplyTo  string `yaml:"reply_to"`
}

// Message is one outbound email. Body is HTML.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender implements Sender over plain SMTP with AUTH.
type SMTPSender struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	log  *slog.Logger
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{
		cfg:  cfg,
		send: smtp.SendMail,
		log:  slog.Default().With("component", "email"),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}
	if s.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(addr, auth, s.cfg.From, msg.To, buildMessage(s.cfg, msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.log.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// buildMessage renders the RFC 5322 wire form with an HTML body.
func buildMessage(cfg Config, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if cfg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", cfg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
