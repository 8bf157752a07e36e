// Package extension holds the mail alterers wired into the contact usecase.
// Each one receives the composed message before delivery and may change it.
package extension

import (
	"context"
	"fmt"
	"net/url"

	"go-contact-backend/config"
	"go-contact-backend/internal/domain"

	"github.com/google/uuid"
)

// MessageID stamps a unique Message-ID header.
type MessageID struct {
	host  string
	newID func() string
}

// NewMessageID derives the id host from the site URL.
func NewMessageID(settings domain.Settings) *MessageID {
	host := "localhost"
	if u, err := url.Parse(settings.Get(config.KeySiteURL, "")); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return &MessageID{host: host, newID: uuid.NewString}
}

func (m *MessageID) MailAlter(_ context.Context, msg *domain.OutgoingMessage, _ domain.Submission) error {
	if msg.Headers == nil {
		msg.Headers = map[string]string{}
	}
	msg.Headers["Message-ID"] = fmt.Sprintf("<%s@%s>", m.newID(), m.host)
	return nil
}

// OriginatingHeaders records where the message came from so mail filters can sort it.
type OriginatingHeaders struct{}

func (OriginatingHeaders) MailAlter(_ context.Context, msg *domain.OutgoingMessage, sub domain.Submission) error {
	if msg.Headers == nil {
		msg.Headers = map[string]string{}
	}
	msg.Headers["X-Originating-Email"] = sub.Get(domain.FieldEmail)
	msg.Headers["X-Contact-Form-Variant"] = sub.Get(domain.FieldFormVariant)
	if sub.Has(domain.FieldPkgID) {
		msg.Headers["X-Contact-Dataset"] = sub.Get(domain.FieldPkgID)
	}
	return nil
}

// VariantRecipients sends each form variant to its own inbox when
// contact.<variant>.mail_to is set. Messages already routed to a dataset
// contact are left alone.
type VariantRecipients struct {
	settings domain.Settings
}

func NewVariantRecipients(settings domain.Settings) *VariantRecipients {
	return &VariantRecipients{settings: settings}
}

func (v *VariantRecipients) MailAlter(_ context.Context, msg *domain.OutgoingMessage, sub domain.Submission) error {
	if _, rerouted := msg.Headers["cc"]; rerouted {
		return nil
	}
	if to := v.settings.Get(config.VariantMailToKey(sub.Get(domain.FieldFormVariant)), ""); to != "" {
		msg.RecipientEmail = to
	}
	return nil
}

// Defaults returns the alterers the service runs, in order.
func Defaults(settings domain.Settings) []domain.MailAlterer {
	return []domain.MailAlterer{
		NewVariantRecipients(settings),
		OriginatingHeaders{},
		NewMessageID(settings),
	}
}
