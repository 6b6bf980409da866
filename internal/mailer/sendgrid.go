package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendgridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGridMailer delivers mail through the SendGrid v3 API.
type SendGridMailer struct {
	APIKey   string
	FromName string
	Timeout  time.Duration

	client *http.Client
}

var _ Mailer = (*SendGridMailer)(nil)

func NewSendGridMailer(apiKey, fromName string, timeout time.Duration) *SendGridMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SendGridMailer{
		APIKey:   apiKey,
		FromName: fromName,
		Timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *SendGridMailer) Send(ctx context.Context, e Email) error {
	message := mail.NewV3Mail()
	fromName := e.FromName
	if fromName == "" {
		fromName = s.FromName
	}
	message.SetFrom(mail.NewEmail(fromName, e.From))
	message.Subject = e.Subject

	p := mail.NewPersonalization()
	for _, rcpt := range e.To {
		p.AddTos(mail.NewEmail("", rcpt))
	}
	message.AddPersonalizations(p)

	if e.Text != "" {
		message.AddContent(mail.NewContent("text/plain", e.Text))
	}
	if e.HTML != "" {
		message.AddContent(mail.NewContent("text/html", e.HTML))
	}

	body := mail.GetRequestBody(message)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendgridEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range e.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid API error: %d", resp.StatusCode)
	}
	return nil
}
