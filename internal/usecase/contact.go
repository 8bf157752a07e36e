package usecase

import (
	"context"
	"fmt"
	"go-contact-backend/config"
	"go-contact-backend/internal/domain"
	"go-contact-backend/pkg/logger"
	"go-contact-backend/pkg/security"
	"go-contact-backend/pkg/validation"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// RecaptchaFailedMessage is shown to the visitor; the reason is only logged
	RecaptchaFailedMessage = "Recaptcha check failed, please try again."
	// DefaultSubject is used when no subject is configured for the form variant
	DefaultSubject = "Contact from visitor"
	// TimestampLayout renders as e.g. 2024-01-02 15:04:05 UTC
	TimestampLayout = "2006-01-02 15:04:05 MST"
	// NotApplicable fills optional dataset suggestion fields left blank
	NotApplicable = "N/A"
)

// ContactDeps are the collaborators of the contact usecase.
// Recaptcha, Datasets, Audit and Logger may be nil.
type ContactDeps struct {
	Settings  domain.Settings
	Clock     domain.Clock
	Validate  *validator.Validate
	Recaptcha domain.RecaptchaChecker
	Renderer  domain.TemplateRenderer
	Mailer    domain.Mailer
	Datasets  domain.DatasetRepository
	Alterers  []domain.MailAlterer
	Audit     *security.SecurityLogger
	Logger    *slog.Logger
}

type contactUsecase struct {
	settings  domain.Settings
	clock     domain.Clock
	validate  *validator.Validate
	recaptcha domain.RecaptchaChecker
	renderer  domain.TemplateRenderer
	mailer    domain.Mailer
	datasets  domain.DatasetRepository
	alterers  []domain.MailAlterer
	audit     *security.SecurityLogger
	log       *slog.Logger
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(deps ContactDeps) domain.ContactUsecase {
	uc := &contactUsecase{
		settings:  deps.Settings,
		clock:     deps.Clock,
		validate:  deps.Validate,
		recaptcha: deps.Recaptcha,
		renderer:  deps.Renderer,
		mailer:    deps.Mailer,
		datasets:  deps.Datasets,
		alterers:  deps.Alterers,
		audit:     deps.Audit,
		log:       deps.Logger,
	}
	if uc.clock == nil {
		uc.clock = domain.SystemClock{}
	}
	if uc.validate == nil {
		uc.validate = validation.New()
	}
	if uc.log == nil {
		uc.log = logger.Log
	}
	return uc
}

// Submit validates the form values and sends the notification when they are clean.
// Field and CAPTCHA problems and delivery failures are reported in the outcome;
// dataset lookup, rendering and extension errors are returned.
func (uc *contactUsecase) Submit(ctx context.Context, values map[string]string) (*domain.SubmissionOutcome, error) {
	data := domain.Submission(values).Clone()
	emailSuccess := true

	result := uc.Validate(ctx, data)

	if len(result.Errors) == 0 && result.RecaptchaError == nil {
		msg, normalized, err := uc.Compose(ctx, data)
		if err != nil {
			return nil, err
		}
		data = normalized

		if err := uc.dispatchMailAlter(ctx, msg, data); err != nil {
			return nil, err
		}

		if err := uc.mailer.MailRecipient(ctx, msg); err != nil {
			emailSuccess = false
			uc.log.Error("Failed to send contact email", "recipient", security.MaskEmail(msg.RecipientEmail), "error", err)
			uc.audit.LogDeliveryFailed(ctx, msg.RecipientEmail, requestID(ctx), err)
		}
	}

	return &domain.SubmissionOutcome{
		Success:        result.RecaptchaError == nil && len(result.Errors) == 0 && emailSuccess,
		Data:           data,
		Errors:         result.Errors,
		ErrorSummary:   result.ErrorSummary,
		RecaptchaError: result.RecaptchaError,
		EmailSuccess:   emailSuccess,
	}, nil
}

// Validate checks the required fields and, only when they are all present, the CAPTCHA token.
func (uc *contactUsecase) Validate(ctx context.Context, sub domain.Submission) domain.ValidationResult {
	err := uc.validate.Struct(validation.RequiredFields{
		Email:   sub.Get(domain.FieldEmail),
		Name:    sub.Get(domain.FieldName),
		Content: sub.Get(domain.FieldContent),
	})
	errs, summary := validation.FieldErrors(err)

	result := domain.ValidationResult{
		Errors:       errs,
		ErrorSummary: summary,
	}

	if len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for f := range errs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		uc.audit.LogValidationFailed(ctx, requestID(ctx), fields)
		return result
	}

	result.RecaptchaError = uc.verifyRecaptcha(ctx, sub)
	return result
}

// verifyRecaptcha never fails: any checker error becomes the visitor-facing message
func (uc *contactUsecase) verifyRecaptcha(ctx context.Context, sub domain.Submission) *string {
	if uc.recaptcha == nil {
		return nil
	}

	expectedAction := uc.settings.Get(config.KeyRecaptchaAction, "")
	if err := uc.recaptcha.Check(ctx, sub.Get(domain.FieldRecaptcha), expectedAction); err != nil {
		uc.log.Info(fmt.Sprintf("Recaptcha failed due to %q : %s", err.Error(), expectedAction))
		uc.audit.LogRecaptchaFailed(ctx, sub.Get(domain.FieldEmail), requestID(ctx), expectedAction, err.Error())
		msg := RecaptchaFailedMessage
		return &msg
	}
	return nil
}

// BuildSubject computes the subject line for a form variant. The timestamp suffix,
// when enabled, is taken from now rather than the wall clock.
func BuildSubject(settings domain.Settings, now time.Time, variant domain.FormVariant, contactType, subjectDefault string, timestampDefault bool) string {
	subject := settings.Get(config.SubjectKey(string(variant)), subjectDefault)
	if variant == domain.FormVariantContact {
		subject = fmt.Sprintf("%s : %s", subject, contactType)
	}
	if settings.Bool(config.KeyAddTimestampToSubject, timestampDefault) {
		subject = fmt.Sprintf("%s [%s]", subject, now.UTC().Format(TimestampLayout))
	}
	return subject
}

// Compose normalises a validated submission and builds the outgoing message.
// It returns the message together with the normalised submission.
func (uc *contactUsecase) Compose(ctx context.Context, sub domain.Submission) (*domain.OutgoingMessage, domain.Submission, error) {
	data := sub.Clone()

	variant := domain.ParseFormVariant(data.Get(domain.FieldFormVariant))
	data[domain.FieldFormVariant] = string(variant)

	bodyParts := []string{
		data.Get(domain.FieldContent) + "\n",
		"Sent by:",
		"  Name: " + data.Get(domain.FieldName),
		"  Email: " + data.Get(domain.FieldEmail),
	}

	if data.Has(domain.FieldPkgURL) {
		bodyParts = append(bodyParts, "  Dataset URL: "+data.Get(domain.FieldPkgURL))
	} else {
		data[domain.FieldPkgURL] = ""
	}

	// Only a defaulted contact type is written into the body
	if !data.Has(domain.FieldContactType) {
		data[domain.FieldContactType] = string(domain.ContactTypeQuestion)
		bodyParts = append(bodyParts, "  Contact Type: "+data.Get(domain.FieldContactType))
	} else if !domain.ContactType(data.Get(domain.FieldContactType)).IsKnown() {
		uc.log.Debug("Unrecognised contact type", "contact_type", data.Get(domain.FieldContactType))
	}

	switch variant {
	case domain.FormVariantSuggestDataset:
		for _, field := range []string{domain.FieldResource, domain.FieldMaintainer, domain.FieldURL} {
			if !data.Has(field) {
				data[field] = NotApplicable
			}
		}
		if domain.ContactType(data.Get(domain.FieldContactType)) == domain.ContactTypeBoth {
			data[domain.FieldContactType] = string(domain.ContactTypeDataAndApplication)
		}
		bodyParts = append(bodyParts,
			"  Title of Resource: "+data.Get(domain.FieldResource),
			"  Who owns or maintains this resource? "+data.Get(domain.FieldMaintainer),
			"  Link: "+data.Get(domain.FieldURL),
		)
	default:
		// The contact template still receives these keys
		data[domain.FieldResource] = ""
		data[domain.FieldMaintainer] = ""
		data[domain.FieldURL] = ""
	}

	dest := domain.ParseContactDest(data.Get(domain.FieldContactDest))
	data[domain.FieldContactDest] = string(dest)

	// One clock reading serves both the subject and the template timestamp
	now := uc.clock.Now().UTC()
	subject := BuildSubject(uc.settings, now, variant, data.Get(domain.FieldContactType), DefaultSubject, false)
	siteTitle := uc.settings.Get(config.KeySiteTitle, "")

	bodyHTML, err := uc.renderer.Render(fmt.Sprintf("emails/%s.html", variant), map[string]any{
		"name":         data.Get(domain.FieldName),
		"email":        data.Get(domain.FieldEmail),
		"contact_type": data.Get(domain.FieldContactType),
		"resource":     data.Get(domain.FieldResource),
		"maintainer":   data.Get(domain.FieldMaintainer),
		"url":          data.Get(domain.FieldURL),
		"pkg_url":      data.Get(domain.FieldPkgURL),
		// escaped here so the template can add line breaks safely
		"message":    html.EscapeString(data.Get(domain.FieldContent)),
		"timestamp":  now.Format(TimestampLayout),
		"site_title": siteTitle,
		"site_url":   uc.settings.Get(config.KeySiteURL, ""),
		"subject":    subject,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render contact email: %w", err)
	}

	msg := &domain.OutgoingMessage{
		RecipientEmail: uc.settings.Get(config.KeyMailTo, uc.settings.Get(config.KeyEmailTo, "")),
		RecipientName:  uc.settings.Get(config.KeyRecipientName, siteTitle),
		Subject:        subject,
		Body:           strings.Join(bodyParts, "\n"),
		BodyHTML:       bodyHTML,
		Headers: map[string]string{
			"Reply-To": data.Get(domain.FieldEmail),
		},
	}

	if dest.RoutesToDataset() && data.Has(domain.FieldPkgID) {
		if err := uc.routeToDataset(ctx, msg, data.Get(domain.FieldPkgID)); err != nil {
			return nil, nil, err
		}
	}

	return msg, data, nil
}

// routeToDataset makes the dataset's contact the recipient and copies the default recipient
func (uc *contactUsecase) routeToDataset(ctx context.Context, msg *domain.OutgoingMessage, pkgID string) error {
	if uc.datasets == nil {
		return fmt.Errorf("dataset lookup is not configured")
	}
	ds, err := uc.datasets.GetByIDOrName(ctx, pkgID)
	if err != nil {
		return fmt.Errorf("failed to look up dataset %s: %w", pkgID, err)
	}
	if ds.DataContactEmail == "" {
		return nil
	}

	msg.Headers["cc"] = msg.RecipientEmail
	msg.RecipientEmail = ds.DataContactEmail
	uc.audit.LogMessageRerouted(ctx, ds.DataContactEmail, ds.ID, requestID(ctx))
	return nil
}

// dispatchMailAlter lets each extension modify the message, in order.
// The first error stops the chain.
func (uc *contactUsecase) dispatchMailAlter(ctx context.Context, msg *domain.OutgoingMessage, sub domain.Submission) error {
	for _, alterer := range uc.alterers {
		if err := alterer.MailAlter(ctx, msg, sub); err != nil {
			return fmt.Errorf("mail extension %T failed: %w", alterer, err)
		}
	}
	return nil
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(domain.KeyRequestID).(string)
	return id
}
