package notification

import (
	"crypto/tls"
	"log/slog"

	mail "github.com/go-mail/mail"
	"github.com/kambejat/undiziwa/internal"
)

// SMTPSender implements Sender over SMTP with STARTTLS negotiation.
type SMTPSender struct {
	Host   string
	Port   int
	From   string
	User   string
	Pass   string
	logger *slog.Logger
}

func NewSMTPSender(cfg internal.SMTPConfig, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{
		Host:   cfg.Host,
		Port:   cfg.Port,
		From:   cfg.FromEmail,
		User:   cfg.Username,
		Pass:   cfg.Password,
		logger: logger,
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	s.logger.Debug("sending email",
		"host", s.Host,
		"port", s.Port,
		"to", to,
		"subject", subject)

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{ServerName: s.Host}

	if err := d.DialAndSend(m); err != nil {
		s.logger.Error("smtp send failed", "error", err, "to", to)
		return err
	}

	return nil
}
