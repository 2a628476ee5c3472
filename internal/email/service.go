// Package email provides outbound mail via SMTP.
package email

import (
	"fmt"
	"net/smtp"

	"github.com/paulaPelizer/DocScriptum/internal/config"
)

// Service sends plain-text mail. When the deployment has no SMTP host
// configured, Send degrades to a no-op so the calling flows stay usable.
type Service struct {
	cfg    config.MailConfig
	server string
	auth   smtp.Auth
}

func NewService(cfg config.MailConfig) *Service {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Service{
		cfg:    cfg,
		server: cfg.Host + ":" + cfg.Port,
		auth:   auth,
	}
}

// IsConfigured reports whether the service can actually deliver mail.
func (s *Service) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Port != ""
}

// Send delivers one message. Fire-and-forget: there is no delivery
// guarantee beyond the SMTP handshake.
func (s *Service) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		to, from, subject, body))

	return smtp.SendMail(s.server, s.auth, s.cfg.From, []string{to}, msg)
}
