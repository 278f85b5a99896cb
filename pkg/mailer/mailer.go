package mailer

import (
	"fmt"

	"github.com/anonto42/prehome/backend/pkg/config"
	"gopkg.in/gomail.v2"
)

// Sender delivers plain-text mails
type Sender interface {
	Send(to, subject, body string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends mail through an SMTP relay
type SMTPSender struct {
	from   string
	dialer dialer
}

// NewSMTPSender creates a sender from the mail configuration
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send dials the relay and sends a single message
func (s *SMTPSender) Send(to, subject, body string) error {
	if err := s.dialer.DialAndSend(s.message(to, subject, body)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func (s *SMTPSender) message(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}
