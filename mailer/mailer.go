package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// MessageSender delivers one message to one recipient. The boolean result
// and the error are treated identically by callers: anything but
// (true, nil) means the recipient was not reached.
type MessageSender interface {
	SendMessage(ctx context.Context, to string, subject string, body string) (bool, error)
}

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPSender creates an SMTPSender for the given relay address and
// sender identity. auth may be nil for relays that accept unauthenticated
// submission.
func NewSMTPSender(addr string, from string, auth smtp.Auth) *SMTPSender {
	return &SMTPSender{
		addr: addr,
		from: from,
		auth: auth,
	}
}

// SendMessage implements the MessageSender contract. The context is checked
// before the dial; net/smtp does not support cancellation mid-send.
func (s *SMTPSender) SendMessage(ctx context.Context, to string, subject string, body string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	message := s.composeMessage(to, subject, body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, message); err != nil {
		return false, fmt.Errorf("send mail to %s: %w", to, err)
	}

	return true, nil
}

func (s *SMTPSender) composeMessage(to string, subject string, body string) []byte {
	var builder strings.Builder

	fmt.Fprintf(&builder, "From: %s\r\n", s.from)
	fmt.Fprintf(&builder, "To: %s\r\n", to)
	fmt.Fprintf(&builder, "Subject: %s\r\n", subject)
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(body)

	return []byte(builder.String())
}
