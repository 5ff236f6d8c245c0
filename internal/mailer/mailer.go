// Package mailer delivers single email messages over SMTP, the Gmail API, or
// to the application log in development.
package mailer

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrNoRecipient   = errors.New("message has no recipient")
	ErrHeaderNewline = errors.New("header value contains a line break")
)

type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	// Send delivers msg and returns the transport's message id.
	Send(ctx context.Context, msg Message) (string, error)
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipient
	}
	addrs := append([]string{m.From}, m.To...)
	if m.ReplyTo != "" {
		addrs = append(addrs, m.ReplyTo)
	}
	for _, v := range append(addrs, m.Subject) {
		if strings.ContainsAny(v, "\r\n") {
			return fmt.Errorf("%w: %q", ErrHeaderNewline, v)
		}
	}
	for _, addr := range addrs {
		if _, err := mail.ParseAddress(addr); err != nil {
			return fmt.Errorf("invalid address %q: %w", addr, err)
		}
	}
	return nil
}

// Bytes renders m as an RFC 5322 message with the given Message-ID.
// Messages carrying both bodies are sent as multipart/alternative.
func (m Message) Bytes(messageID string) []byte {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	header("From", m.From)
	header("To", strings.Join(m.To, ", "))
	if m.ReplyTo != "" {
		header("Reply-To", m.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", time.Now().Format(time.RFC1123Z))
	header("Message-ID", messageID)
	header("MIME-Version", "1.0")

	switch {
	case m.Text != "" && m.HTML != "":
		boundary := "alt-" + randomHex(12)
		header("Content-Type", fmt.Sprintf(`multipart/alternative; boundary="%s"`, boundary))
		buf.WriteString("\r\n")
		writePart(&buf, boundary, "text/plain", m.Text)
		writePart(&buf, boundary, "text/html", m.HTML)
		fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	case m.HTML != "":
		writeBody(&buf, "text/html", m.HTML)
	default:
		writeBody(&buf, "text/plain", m.Text)
	}
	return buf.Bytes()
}

func writePart(buf *bytes.Buffer, boundary, contentType, body string) {
	fmt.Fprintf(buf, "--%s\r\n", boundary)
	writeBody(buf, contentType, body)
	buf.WriteString("\r\n")
}

func writeBody(buf *bytes.Buffer, contentType, body string) {
	fmt.Fprintf(buf, "Content-Type: %s; charset=UTF-8\r\n", contentType)
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	w := quotedprintable.NewWriter(buf)
	_, _ = w.Write([]byte(body))
	_ = w.Close()
}

// NewMessageID builds a Message-ID in the sender's domain.
func NewMessageID(from string) string {
	domain := "localhost"
	if addr, err := mail.ParseAddress(from); err == nil {
		if at := strings.LastIndex(addr.Address, "@"); at >= 0 {
			domain = addr.Address[at+1:]
		}
	}
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), randomHex(8), domain)
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Addresses extracts the bare addresses for the SMTP envelope.
func addresses(list []string) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, raw := range list {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", raw, err)
		}
		out = append(out, addr.Address)
	}
	return out, nil
}
