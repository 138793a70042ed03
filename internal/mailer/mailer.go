package mailer

import (
	"errors"

	"github.com/ripple-social/apiserver/config"
	"gopkg.in/gomail.v2"
)

// Mailer sends email through the configured SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New constructs a Mailer from config.
func New(cfg config.SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port == 0 {
		return nil, errors.New("smtp port is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

// Send delivers a plain-text email to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if to == "" {
		return errors.New("no recipient specified")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}
