package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"sort"
	"strings"
)

// SMTPMailer delivers mail through a plain SMTP relay. Port 465 uses
// implicit TLS; everything else goes through smtp.SendMail.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, Username: username, Password: password}
}

func (m *SMTPMailer) auth() smtp.Auth {
	if m.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", m.Username, m.Password, m.Host)
}

func (m *SMTPMailer) message(e Email) []byte {
	from := e.From
	if e.FromName != "" {
		from = fmt.Sprintf("%s <%s>", e.FromName, e.From)
	}
	headers := map[string]string{
		"From":         from,
		"To":           strings.Join(e.To, ","),
		"Subject":      e.Subject,
		"MIME-Version": "1.0",
	}
	if e.HTML != "" {
		headers["Content-Type"] = `text/html; charset="UTF-8"`
	} else {
		headers["Content-Type"] = `text/plain; charset="UTF-8"`
	}
	for k, v := range e.Headers {
		headers[k] = v
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&msg, "%s: %s\r\n", k, headers[k])
	}
	msg.WriteString("\r\n")
	if e.HTML != "" {
		msg.WriteString(e.HTML)
	} else {
		msg.WriteString(e.Text)
	}
	return []byte(msg.String())
}

func (m *SMTPMailer) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	msg := m.message(e)

	if m.Port == 465 {
		return m.sendTLS(addr, e, msg)
	}
	return smtp.SendMail(addr, m.auth(), e.From, e.To, msg)
}

func (m *SMTPMailer) sendTLS(addr string, e Email, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.Host})
	if err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if a := m.auth(); a != nil {
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(e.From); err != nil {
		return err
	}
	for _, rcpt := range e.To {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}
