package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/dtos"
	"github.com/justsurfingit/internship-tracker/internal/notify"
)

// ContactService forwards visitor messages to the site admin. Unlike other
// emails the send is synchronous so the visitor learns whether it worked.
type ContactService struct {
	Notifier   *notify.Notifier
	Emails     *notify.Emails
	AdminEmail string
}

func NewContactService(n *notify.Notifier, emails *notify.Emails, adminEmail string) *ContactService {
	return &ContactService{Notifier: n, Emails: emails, AdminEmail: adminEmail}
}

func (s *ContactService) Send(ctx context.Context, req *dtos.ContactRequest) (string, error) {
	name, email, message := strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), strings.TrimSpace(req.Message)
	if name == "" || email == "" || message == "" {
		return "", invalid("name, email and message are required")
	}
	if !auth.ValidEmail(email) {
		return "", ErrInvalidEmail
	}
	if strings.ContainsAny(name, "\r\n") {
		return "", invalid("name must be a single line")
	}
	if !s.Notifier.Configured() || s.AdminEmail == "" {
		return "", ErrMailerUnavailable
	}
	id, err := s.Notifier.Mailer().Send(ctx, s.Emails.Contact(s.AdminEmail, name, email, message))
	if err != nil {
		return "", fmt.Errorf("send contact message: %w", err)
	}
	return id, nil
}
