package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailMailer sends through the Gmail API as the authorized account.
type GmailMailer struct {
	svc *gmail.Service
}

func NewGmailMailer(ctx context.Context, client *http.Client) (*GmailMailer, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailMailer{svc: svc}, nil
}

func (g *GmailMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.validate(); err != nil {
		return "", err
	}
	raw := msg.Bytes(NewMessageID(msg.From))
	sent, err := g.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}
	return sent.Id, nil
}
