package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/latra/medicsystem-gta-backend/internal/config"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *smtpService) SendWelcome(ctx context.Context, to, name, defaultPassword string) error {
	body := fmt.Sprintf(`
		<h2>Welcome, %s</h2>
		<p>Your account has been created.</p>
		<p>Your temporary password is <strong>%s</strong>. Please change it after your first login.</p>
	`, name, defaultPassword)
	return s.send(ctx, to, "Your account is ready", body)
}

func (s *smtpService) SendExamCertificate(ctx context.Context, to, name, examName string, score float64) error {
	body := fmt.Sprintf(`
		<h2>Congratulations, %s</h2>
		<p>You passed the exam <strong>%s</strong> with a score of %.1f%%.</p>
	`, name, examName, score)
	return s.send(ctx, to, fmt.Sprintf("Exam passed: %s", examName), body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send(ctx, to, subject, content)
}
