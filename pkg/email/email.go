package email

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"go-contact-backend/config"
	"go-contact-backend/internal/domain"
)

// SendFunc matches smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailerError wraps any failure to hand a message to the SMTP server
type MailerError struct {
	Op  string
	Err error
}

func (e *MailerError) Error() string {
	return fmt.Sprintf("mailer: %s: %v", e.Op, e.Err)
}

func (e *MailerError) Unwrap() error {
	return e.Err
}

// EmailService sends composed messages via SMTP
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	send      SendFunc
	now       func() time.Time
}

// NewEmailService creates a new email service from the SMTP configuration
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.SMTPFromEmail,
		send:      smtp.SendMail,
		now:       time.Now,
	}
}

// WithSendFunc replaces the SMTP transport, e.g. in tests
func (s *EmailService) WithSendFunc(send SendFunc) *EmailService {
	s.send = send
	return s
}

// IsConfigured checks if the email service has an SMTP server to talk to
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.port != "" && s.fromEmail != ""
}

// MailRecipient makes one delivery attempt. Addresses in a Cc header also receive the message.
func (s *EmailService) MailRecipient(ctx context.Context, msg *domain.OutgoingMessage) error {
	if !s.IsConfigured() {
		return &MailerError{Op: "configure", Err: fmt.Errorf("SMTP server not configured")}
	}
	if msg.RecipientEmail == "" {
		return &MailerError{Op: "address", Err: fmt.Errorf("no recipient address")}
	}
	if err := ctx.Err(); err != nil {
		return &MailerError{Op: "send", Err: err}
	}

	raw, recipients, err := s.buildMessage(msg)
	if err != nil {
		return &MailerError{Op: "build", Err: err}
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, auth, s.fromEmail, recipients, raw); err != nil {
		return &MailerError{Op: "send", Err: err}
	}
	return nil
}

// buildMessage renders a multipart/alternative MIME message and the envelope recipients
func (s *EmailService) buildMessage(msg *domain.OutgoingMessage) ([]byte, []string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	to := mail.Address{Name: msg.RecipientName, Address: msg.RecipientEmail}
	headers := map[string]string{
		"From":         s.fromEmail,
		"To":           to.String(),
		"Subject":      mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date":         s.now().Format(time.RFC1123Z),
		"Mime-Version": "1.0",
		"Content-Type": fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary()),
	}
	for k, v := range msg.Headers {
		if k == "" || strings.ContainsAny(k, "\r\n: ") {
			return nil, nil, fmt.Errorf("invalid header name %q", k)
		}
		headers[textproto.CanonicalMIMEHeaderKey(k)] = v
	}

	recipients := []string{msg.RecipientEmail}
	for _, k := range addressHeaders {
		v, ok := headers[k]
		if !ok || v == "" {
			continue
		}
		list, err := mail.ParseAddressList(v)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid %s header: %w", k, err)
		}
		headers[k] = formatAddressList(list)
		if k == "Cc" {
			for _, a := range list {
				recipients = append(recipients, a.Address)
			}
		}
	}

	for k, v := range headers {
		if strings.ContainsAny(v, "\r\n") {
			return nil, nil, fmt.Errorf("line break in %s header", k)
		}
	}

	if err := writePart(mw, "text/plain; charset=UTF-8", msg.Body); err != nil {
		return nil, nil, err
	}
	if msg.BodyHTML != "" {
		if err := writePart(mw, "text/html; charset=UTF-8", msg.BodyHTML); err != nil {
			return nil, nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, nil, err
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&out, "%s: %s\r\n", k, headers[k])
	}
	out.WriteString("\r\n")
	out.Write(body.Bytes())

	return out.Bytes(), recipients, nil
}

// addressHeaders are parsed and rewritten from their addresses before sending
var addressHeaders = []string{"Reply-To", "Cc"}

func formatAddressList(list []*mail.Address) string {
	out := make([]string, len(list))
	for i, a := range list {
		if a.Name == "" {
			out[i] = a.Address
		} else {
			out[i] = a.String()
		}
	}
	return strings.Join(out, ", ")
}

func writePart(mw *multipart.Writer, contentType, content string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	h.Set("Content-Transfer-Encoding", "8bit")
	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(content))
	return err
}
