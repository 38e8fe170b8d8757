package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	SendVisitConfirmation(ctx context.Context, to string, event model.VisitBooked) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

// sender is the part of *gomail.Dialer the SMTP service uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer sender
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendVisitConfirmation(ctx context.Context, to string, event model.VisitBooked) error {
	subject, body := visitConfirmation(event)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// logService writes messages to the log instead of sending them. Used when SMTP is disabled.
type logService struct {
	logger *logger.Logger
}

func NewLogService(log *logger.Logger) Service {
	return &logService{logger: log}
}

func (s *logService) SendVisitConfirmation(ctx context.Context, to string, event model.VisitBooked) error {
	subject, body := visitConfirmation(event)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *logService) SendCustom(_ context.Context, to string, subject string, content string) error {
	s.logger.Info("email not sent, smtp disabled", "to", to, "subject", subject, "length", len(content))
	return nil
}

func visitConfirmation(e model.VisitBooked) (string, string) {
	subject := fmt.Sprintf("Visit confirmed for %s at %s", e.Date, e.Time)
	body := fmt.Sprintf(
		"Your visit on %s at %s has been booked.\n\nReference: %s\n\nTo cancel, open the visit in the clinic portal before the appointment time.\n",
		e.Date, e.Time, e.VisitID,
	)
	return subject, body
}
