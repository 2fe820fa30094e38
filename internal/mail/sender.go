// Package mail renders and sends transactional e-mails through an SMTP
// relay.
package mail

import (
	"context"
	"crypto/tls"
	"errors"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/facility-reservation/internal/config"
	"github.com/iliyamo/facility-reservation/internal/model"
)

// ErrNoRecipient is returned for notifications without an e-mail address.
var ErrNoRecipient = errors.New("mail: notification has no recipient")

// Dialer is the part of gomail.Dialer used by Sender.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Sender delivers notifications.  Without an SMTP host it only logs what
// it would have sent.
type Sender struct {
	dialer        Dialer
	from          string
	fromName      string
	publicBaseURL string
}

// NewSender builds a Sender from cfg.
func NewSender(cfg config.SMTPConfig, publicBaseURL string) *Sender {
	s := &Sender{from: cfg.From, fromName: cfg.FromName, publicBaseURL: publicBaseURL}
	if cfg.Enabled() {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		if cfg.SkipVerify {
			d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host}
		}
		s.dialer = d
	}
	return s
}

// NewSenderWithDialer is used by tests to capture outgoing messages.
func NewSenderWithDialer(d Dialer, from, publicBaseURL string) *Sender {
	return &Sender{dialer: d, from: from, publicBaseURL: publicBaseURL}
}

// Send renders n and hands it to the relay.
func (s *Sender) Send(ctx context.Context, n model.Notification) error {
	if n.Email == "" {
		return ErrNoRecipient
	}
	subject, body, err := Render(n, s.publicBaseURL)
	if err != nil {
		return err
	}
	if s.dialer == nil {
		log.Ctx(ctx).Info().Str("to", n.Email).Str("subject", subject).Msg("mail: smtp disabled, not sending")
		return nil
	}

	m := gomail.NewMessage()
	if s.fromName != "" {
		m.SetAddressHeader("From", s.from, s.fromName)
	} else {
		m.SetHeader("From", s.from)
	}
	m.SetHeader("To", n.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("to", n.Email).Str("kind", string(n.Kind)).Int64("booking_id", n.BookingID).Msg("mail: sent")
	return nil
}
