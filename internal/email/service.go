package email

import (
	"context"
)

// Service sends operational mail. Implementations must be safe for
// concurrent use.
type Service interface {
	SendWelcome(ctx context.Context, to, name, defaultPassword string) error
	SendExamCertificate(ctx context.Context, to, name, examName string, score float64) error
	SendCustom(ctx context.Context, to, subject, content string) error
}

type noopService struct{}

// NewNoopService returns a sender that drops every message. Used when
// SMTP is not configured.
func NewNoopService() Service { return noopService{} }

func (noopService) SendWelcome(context.Context, string, string, string) error { return nil }
func (noopService) SendExamCertificate(context.Context, string, string, string, float64) error {
	return nil
}
func (noopService) SendCustom(context.Context, string, string, string) error { return nil }
