package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"content_lifecycle_engine/internal/domain/mail"
)

// SMTPClient implements mail.Client over plain SMTP. A nil error from Send
// means the transport accepted the message; the dispatcher records the
// notification only then.
type SMTPClient struct {
	host string
	port int
	from string
	auth smtp.Auth
}

func NewSMTPClient(host string, port int, from, user, pass string) *SMTPClient {
	c := &SMTPClient{host: host, port: port, from: from}
	if user != "" {
		c.auth = smtp.PlainAuth("", user, pass, host)
	}
	return c
}

func (c *SMTPClient) Send(ctx context.Context, recipientAddress, locale string, msg mail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.from)
	fmt.Fprintf(&b, "To: %s\r\n", recipientAddress)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	if locale != "" {
		fmt.Fprintf(&b, "Content-Language: %s\r\n", locale)
	}
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	if err := smtp.SendMail(addr, c.auth, c.from, []string{recipientAddress}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", recipientAddress, err)
	}
	return nil
}
