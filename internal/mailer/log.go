package mailer

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogMailer writes messages to the log instead of delivering them. It is the
// fallback when no SMTP account is configured.
type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.validate(); err != nil {
		return "", err
	}
	id := NewMessageID(msg.From)
	body := msg.Text
	if body == "" {
		body = msg.HTML
	}
	l.logger.Info().
		Str("message_id", id).
		Str("from", msg.From).
		Str("to", strings.Join(msg.To, ", ")).
		Str("subject", msg.Subject).
		Str("body", body).
		Msg("email not delivered (log transport)")
	return id, nil
}

// Recorder keeps every message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned by every Send.
	Err error
}

func (r *Recorder) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.validate(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	r.messages = append(r.messages, msg)
	return NewMessageID(msg.From), nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// To returns the messages addressed to addr.
func (r *Recorder) To(addr string) []Message {
	var out []Message
	for _, m := range r.Messages() {
		for _, to := range m.To {
			if strings.EqualFold(to, addr) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
