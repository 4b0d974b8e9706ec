// Package mail renders escalation notices and delivers queued mail over SMTP.
package mail

import (
	"crypto/tls"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/example/vital/internal/config"
	"github.com/example/vital/internal/metrics"
	"github.com/example/vital/internal/ports/secondary"
)

const defaultSenderAddress = "noreply@vital.example.org"

type sender struct {
	dialer        *gomail.Dialer
	senderAddress string
	senderName    string
	log           *zap.SugaredLogger
}

// NewSender creates an SMTP sender from the mail configuration.
func NewSender(cfg config.Mail, log *zap.SugaredLogger) secondary.MailSender {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log.Infow("Initializing mail sender", "host", cfg.Host, "port", cfg.Port, "user", cfg.User)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if cfg.InsecureSkipVerify {
		log.Warn("InsecureSkipVerify is enabled for mail TLS connection")
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	addr := cfg.SenderAddress
	if addr == "" {
		addr = defaultSenderAddress
	}
	name := cfg.SenderName
	if name == "" {
		name = "VITAL"
	}

	return &sender{dialer: d, senderAddress: addr, senderName: name, log: log}
}

// Send delivers one HTML message in a single SMTP attempt. Retries are
// driven by the queue worker.
func (s *sender) Send(receivers []string, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.senderAddress, s.senderName)
	msg.SetHeader("To", receivers...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		metrics.MailSendFailure.WithLabelValues(s.GetHost()).Inc()
		s.log.Warnw("Mail send failed", "receivers", len(receivers), "subject", subject, "error", err)
		return err
	}

	metrics.MailSendSuccess.WithLabelValues(s.GetHost()).Inc()
	s.log.Debugw("Mail sent", "receivers", len(receivers), "subject", subject)
	return nil
}

func (s *sender) GetHost() string {
	return s.dialer.Host
}
