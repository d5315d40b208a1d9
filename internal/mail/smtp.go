package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/bizcopilot/bizcopilot/internal/domain"
)

// SMTPMailer sends mail over authenticated SMTP. The client handle and
// sender address are fixed at startup.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTPMailer builds a mailer against the given SMTP server.
func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, req domain.EmailSendRequest) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(req.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(req.Subject)

	contentType := gomail.TypeTextPlain
	if req.IsHTML {
		contentType = gomail.TypeTextHTML
	}
	msg.SetBodyString(contentType, req.Body)

	return m.client.DialAndSendWithContext(ctx, msg)
}
