package domain

import (
	"context"
	"time"
)

// Form field names read from a contact submission
const (
	FieldEmail       = "email"
	FieldName        = "name"
	FieldContent     = "content"
	FieldFormVariant = "form_variant"
	FieldContactType = "contact_type"
	FieldPkgURL      = "pkg-url"
	FieldPkgID       = "pkg-id"
	FieldResource    = "resource"
	FieldMaintainer  = "maintainer"
	FieldURL         = "url"
	FieldContactDest = "contact_dest"
	FieldRecaptcha   = "g-recaptcha-response"
)

// FormVariant selects the workflow and email template for a submission.
type FormVariant string

const (
	FormVariantContact        FormVariant = "contact"
	FormVariantSuggestDataset FormVariant = "suggest_dataset"
)

// ParseFormVariant maps a raw form value to a known variant.
// Empty and unrecognised values fall back to the contact variant.
func ParseFormVariant(raw string) FormVariant {
	switch FormVariant(raw) {
	case FormVariantSuggestDataset:
		return FormVariantSuggestDataset
	default:
		return FormVariantContact
	}
}

// ContactType is what the visitor is getting in touch about.
type ContactType string

const (
	ContactTypeQuestion ContactType = "Question"
	ContactTypeIssue    ContactType = "Issue"
	ContactTypeBoth     ContactType = "Both"

	// ContactTypeDataAndApplication is the display form of Both in dataset suggestions.
	ContactTypeDataAndApplication ContactType = "Data and Application"
)

// IsKnown reports whether t is one of the values the form offers.
func (t ContactType) IsKnown() bool {
	switch t {
	case ContactTypeQuestion, ContactTypeIssue, ContactTypeBoth:
		return true
	}
	return false
}

// ContactDest says who should receive the message.
type ContactDest string

const (
	ContactDestSupport ContactDest = "data-hub-support"
)

// ParseContactDest treats a missing or empty destination as the support desk.
func ParseContactDest(raw string) ContactDest {
	if raw == "" {
		return ContactDestSupport
	}
	return ContactDest(raw)
}

// RoutesToDataset reports whether the message should go to a dataset's own contact.
func (d ContactDest) RoutesToDataset() bool {
	return d != ContactDestSupport
}

// Submission is the flat form data of one contact request, keyed by form field name.
type Submission map[string]string

// Get returns the value of field, or "" when it is absent.
func (s Submission) Get(field string) string {
	return s[field]
}

// Has reports whether field is present and non-empty.
func (s Submission) Has(field string) bool {
	return s[field] != ""
}

// Clone copies the submission so normalisation never writes to the caller's map.
func (s Submission) Clone() Submission {
	out := make(Submission, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ValidationResult holds field-level errors and the CAPTCHA outcome.
type ValidationResult struct {
	Errors         map[string][]string `json:"errors"`
	ErrorSummary   map[string]string   `json:"error_summary"`
	RecaptchaError *string             `json:"recaptcha_error"`
}

// OutgoingMessage is a fully composed, not yet sent email.
// Extensions may change any of its fields before delivery.
type OutgoingMessage struct {
	RecipientEmail string
	RecipientName  string
	Subject        string
	Body           string
	BodyHTML       string
	Headers        map[string]string
}

// SubmissionOutcome is returned to the HTTP layer after a submission.
type SubmissionOutcome struct {
	Success        bool                `json:"success"`
	Data           Submission          `json:"data"`
	Errors         map[string][]string `json:"errors"`
	ErrorSummary   map[string]string   `json:"error_summary"`
	RecaptchaError *string             `json:"recaptcha_error"`
	// EmailSuccess is false only when delivery was attempted and failed.
	EmailSuccess bool `json:"-"`
}

// Settings is the site-wide key/value configuration.
type Settings interface {
	Get(key, fallback string) string
	Bool(key string, fallback bool) bool
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TemplateRenderer renders a named template with the given values into markup.
type TemplateRenderer interface {
	Render(name string, values map[string]any) (string, error)
}

// Mailer makes a single delivery attempt for a composed message.
type Mailer interface {
	MailRecipient(ctx context.Context, msg *OutgoingMessage) error
}

// RecaptchaChecker verifies a CAPTCHA token against the expected action.
type RecaptchaChecker interface {
	Check(ctx context.Context, token, expectedAction string) error
}

// MailAlterer may modify the outgoing message before it is sent.
type MailAlterer interface {
	MailAlter(ctx context.Context, msg *OutgoingMessage, sub Submission) error
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// Submit validates the form values and, when they are clean, sends the notification email.
	// A returned error means the request failed in a way the outcome cannot describe.
	Submit(ctx context.Context, values map[string]string) (*SubmissionOutcome, error)
	// Validate checks required fields and the CAPTCHA token
	Validate(ctx context.Context, sub Submission) ValidationResult
	// Compose builds the outgoing message and returns it with the normalised submission
	Compose(ctx context.Context, sub Submission) (*OutgoingMessage, Submission, error)
}
