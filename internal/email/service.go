package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/opticheck/screening-api/internal/config"
)

// Service sends transactional mail. Only the password-reset flow uses
// it today.
type Service interface {
	SendPasswordReset(to, token string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendPasswordReset(to, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Password reset requested")
	m.SetBody("text/plain", fmt.Sprintf(
		"A password reset was requested for your screening portal account.\n\n"+
			"Reset code: %s\n\n"+
			"The code expires in one hour. If you did not request this, ignore this message.",
		token,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset mail: %w", err)
	}
	return nil
}
