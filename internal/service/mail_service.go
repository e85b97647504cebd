package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/chengzhnag/taskboard/internal/redact"
)

// Mail validation errors.
var (
	ErrMissingRecipient = errors.New("mail recipient cannot be empty")
	ErrMissingSubject   = errors.New("mail subject cannot be empty")
	ErrMissingBody      = errors.New("mail requires a text or html body")
)

// MailService sends transactional email. It is a thin wrapper over the
// Resend API; delivery semantics beyond the provider's are out of scope.
type MailService interface {
	// Send delivers one message and returns the provider's message id.
	Send(ctx context.Context, to, subject, text, html string) (string, error)
}

// resendMailService implements MailService using the Resend client.
type resendMailService struct {
	emails resend.EmailsSvc
	from   string
	logger *slog.Logger
}

// NewMailService creates a MailService sending through Resend with the given
// API key and from address.
func NewMailService(apiKey, from string, log *slog.Logger) MailService {
	if log == nil {
		log = slog.Default()
	}

	client := resend.NewClient(apiKey)
	return &resendMailService{
		emails: client.Emails,
		from:   from,
		logger: log.With(slog.String("component", "mail_service")),
	}
}

func (s *resendMailService) Send(
	ctx context.Context,
	to, subject, text, html string,
) (string, error) {
	log := s.logger

	if to == "" {
		return "", ErrMissingRecipient
	}
	if subject == "" {
		return "", ErrMissingSubject
	}
	if text == "" && html == "" {
		return "", ErrMissingBody
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
		Html:    html,
	}

	sent, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		log.Error("failed to send mail",
			slog.String("subject", subject),
			slog.String("error", redact.Error(err)))
		return "", fmt.Errorf("failed to send mail: %w", err)
	}

	log.Info("mail sent", slog.String("message_id", sent.Id))
	return sent.Id, nil
}
