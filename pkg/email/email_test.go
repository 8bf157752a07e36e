package email_test

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"go-contact-backend/config"
	"go-contact-backend/internal/domain"
	"go-contact-backend/pkg/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedSend struct {
	addr string
	from string
	to   []string
	msg  string
}

func newService(capture *capturedSend, sendErr error) *email.EmailService {
	cfg := &config.Config{SMTPHost: "smtp.example.org", SMTPPort: "587", SMTPFromEmail: "noreply@example.org"}
	return email.NewEmailService(cfg).WithSendFunc(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		capture.addr, capture.from, capture.to, capture.msg = addr, from, to, string(msg)
		return sendErr
	})
}

func TestMailRecipient(t *testing.T) {
	msg := &domain.OutgoingMessage{
		RecipientEmail: "owner@example.org",
		RecipientName:  "Data Owner",
		Subject:        "Contact from visitor : Issue",
		Body:           "Hi\n\nSent by:",
		BodyHTML:       "<p>Hi</p>",
		Headers: map[string]string{
			"Reply-To": "a@b.com",
			"cc":       "support@example.org",
		},
	}

	t.Run("Should send a multipart message to recipient and cc", func(t *testing.T) {
		var got capturedSend
		err := newService(&got, nil).MailRecipient(context.Background(), msg)
		require.NoError(t, err)

		assert.Equal(t, "smtp.example.org:587", got.addr)
		assert.Equal(t, "noreply@example.org", got.from)
		assert.Equal(t, []string{"owner@example.org", "support@example.org"}, got.to)
		assert.Contains(t, got.msg, "Reply-To: a@b.com\r\n")
		assert.Contains(t, got.msg, "Cc: support@example.org\r\n")
		assert.Contains(t, got.msg, `To: "Data Owner" <owner@example.org>`)
		assert.Contains(t, got.msg, "Content-Type: multipart/alternative;")
		assert.Contains(t, got.msg, "text/plain; charset=UTF-8")
		assert.Contains(t, got.msg, "<p>Hi</p>")
	})

	t.Run("Should wrap transport errors in MailerError", func(t *testing.T) {
		var got capturedSend
		err := newService(&got, errors.New("connection refused")).MailRecipient(context.Background(), msg)

		var merr *email.MailerError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "send", merr.Op)
		assert.True(t, strings.Contains(err.Error(), "connection refused"))
	})

	t.Run("Should refuse header values that carry line breaks", func(t *testing.T) {
		cases := map[string]map[string]string{
			"reply-to":  {"Reply-To": "a@b.com\r\nX-Injected: evil\r\nBcc: victim@example.net"},
			"extension": {"X-Originating-Email": "a@b.com\nBcc: victim@example.net"},
			"bare cr":   {"X-Contact-Dataset": "rivers\rBcc: victim@example.net"},
			"name":      {"X-Evil\r\nBcc": "victim@example.net"},
		}
		for name, headers := range cases {
			t.Run(name, func(t *testing.T) {
				var got capturedSend
				injected := *msg
				injected.Headers = headers

				err := newService(&got, nil).MailRecipient(context.Background(), &injected)

				var merr *email.MailerError
				require.ErrorAs(t, err, &merr)
				assert.Equal(t, "build", merr.Op)
				assert.Empty(t, got.msg, "nothing is handed to the transport")
			})
		}
	})

	t.Run("Should rewrite address headers from the parsed addresses", func(t *testing.T) {
		var got capturedSend
		named := *msg
		named.Headers = map[string]string{
			"Reply-To": "Ada Lovelace <ada@example.org>",
			"Cc":       "support@example.org, Desk <desk@example.org>",
		}

		require.NoError(t, newService(&got, nil).MailRecipient(context.Background(), &named))

		assert.Contains(t, got.msg, "Reply-To: \"Ada Lovelace\" <ada@example.org>\r\n")
		assert.Contains(t, got.msg, "Cc: support@example.org, \"Desk\" <desk@example.org>\r\n")
		assert.Equal(t, []string{"owner@example.org", "support@example.org", "desk@example.org"}, got.to)
	})

	t.Run("Should reject a malformed reply address", func(t *testing.T) {
		var got capturedSend
		bad := *msg
		bad.Headers = map[string]string{"Reply-To": "not an address"}

		var merr *email.MailerError
		require.ErrorAs(t, newService(&got, nil).MailRecipient(context.Background(), &bad), &merr)
		assert.Equal(t, "build", merr.Op)
	})

	t.Run("Should fail when SMTP is not configured", func(t *testing.T) {
		svc := email.NewEmailService(&config.Config{})
		assert.False(t, svc.IsConfigured())

		var merr *email.MailerError
		assert.ErrorAs(t, svc.MailRecipient(context.Background(), msg), &merr)
	})
}

func TestTemplateRenderer(t *testing.T) {
	r, err := email.NewTemplateRenderer()
	require.NoError(t, err)

	values := map[string]any{
		"name":         "A",
		"email":        "a@b.com",
		"contact_type": "Data and Application",
		"resource":     "N/A",
		"maintainer":   "N/A",
		"url":          "N/A",
		"pkg_url":      "",
		"message":      "line one &lt;b&gt;\nline two",
		"timestamp":    "2024-01-02 03:04:05 UTC",
		"site_title":   "Data Hub",
		"site_url":     "https://data.example.org",
		"subject":      "Dataset suggestion",
	}

	t.Run("Should insert line breaks without escaping twice", func(t *testing.T) {
		html, err := r.Render("emails/suggest_dataset.html", values)
		require.NoError(t, err)

		assert.Contains(t, html, "line one &lt;b&gt;<br>\nline two")
		assert.NotContains(t, html, "&amp;lt;")
		assert.Contains(t, html, "Data and Application")
	})

	t.Run("Should render the contact template", func(t *testing.T) {
		html, err := r.Render("emails/contact.html", values)
		require.NoError(t, err)
		assert.Contains(t, html, "Data Hub")
	})

	t.Run("Should report unknown templates", func(t *testing.T) {
		_, err := r.Render("emails/unknown.html", values)
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})
}
