package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageHTMLContentType(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "")
	msg := string(m.message(Email{
		From:     "noreply@kudos.localhost",
		FromName: "Kudos Portal",
		To:       []string{"bob@example.org"},
		Subject:  "New Kudos",
		HTML:     "<h1>hi</h1>",
	}))

	assert.Contains(t, msg, "From: Kudos Portal <noreply@kudos.localhost>")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.Contains(t, msg, "Subject: New Kudos")
	assert.Contains(t, msg, "To: bob@example.org")
	assert.Contains(t, msg, "\r\n\r\n<h1>hi</h1>")
}

func TestMessagePlainTextFallback(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "")
	msg := string(m.message(Email{
		From:    "noreply@kudos.localhost",
		To:      []string{"a@x", "b@x"},
		Subject: "hello",
		Text:    "plain body",
	}))

	assert.Contains(t, msg, "Content-Type: text/plain")
	assert.Contains(t, msg, "To: a@x,b@x")
	assert.Contains(t, msg, "plain body")
}
