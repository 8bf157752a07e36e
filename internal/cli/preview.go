package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go-contact-backend/config"
	"go-contact-backend/internal/domain"
	"go-contact-backend/internal/extension"
	"go-contact-backend/internal/repository/postgres"
	"go-contact-backend/internal/usecase"
	"go-contact-backend/pkg/database"
	"go-contact-backend/pkg/email"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type previewOptions struct {
	values      []string
	html        bool
	now         string
	databaseURL string
}

func newPreviewCmd(root *rootOptions) *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Compose a contact message and print it instead of sending",
		Long: `Run a submission through validation, composition and the mail
extensions, then print the message that would be delivered.
reCAPTCHA is not checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(opts.values)
			if err != nil {
				return err
			}

			settings, err := config.LoadSettings(root.settingsFile)
			if err != nil {
				return err
			}
			log.Debug("Loaded settings", "file", root.settingsFile, "keys", len(settings.Keys()))

			var clock domain.Clock = domain.SystemClock{}
			if opts.now != "" {
				t, err := time.Parse(time.RFC3339, opts.now)
				if err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
				clock = fixedClock(t)
			}

			renderer, err := email.NewTemplateRenderer()
			if err != nil {
				return err
			}

			var datasets domain.DatasetRepository
			if opts.databaseURL != "" {
				pool, err := database.NewPostgresConnection(cmd.Context(), opts.databaseURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				datasets = postgres.NewDatasetRepository(pool)
			}

			uc := usecase.NewContactUsecase(usecase.ContactDeps{
				Settings: settings,
				Clock:    clock,
				Renderer: renderer,
				Mailer:   &printMailer{w: cmd.OutOrStdout(), html: opts.html},
				Datasets: datasets,
				Alterers: extension.Defaults(settings),
				Logger:   slog.New(log.Default()),
			})

			outcome, err := uc.Submit(cmd.Context(), values)
			if err != nil {
				return err
			}
			if len(outcome.Errors) > 0 {
				fields := make([]string, 0, len(outcome.Errors))
				for f := range outcome.Errors {
					fields = append(fields, f)
				}
				sort.Strings(fields)
				for _, f := range fields {
					log.Error("Invalid field", "field", f, "error", strings.Join(outcome.Errors[f], ", "))
				}
				return fmt.Errorf("submission has %d invalid field(s)", len(fields))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opts.values, "set", nil, "form field as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.html, "html", false, "also print the HTML body")
	cmd.Flags().StringVar(&opts.now, "now", "", "fixed time for the subject and timestamp (RFC3339)")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", "", "CKAN database for dataset contact routing")

	return cmd
}

// parseAssignments turns key=value pairs into form values. Later pairs win.
func parseAssignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", pair)
		}
		values[key] = value
	}
	return values, nil
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// printMailer writes the message where a mailer would send it.
type printMailer struct {
	w    io.Writer
	html bool
}

func (p *printMailer) MailRecipient(_ context.Context, msg *domain.OutgoingMessage) error {
	fmt.Fprintf(p.w, "To: %s <%s>\n", msg.RecipientName, msg.RecipientEmail)
	fmt.Fprintf(p.w, "Subject: %s\n", msg.Subject)

	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(p.w, "%s: %s\n", k, msg.Headers[k])
	}

	fmt.Fprintf(p.w, "\n%s\n", msg.Body)
	if p.html {
		fmt.Fprintf(p.w, "\n%s\n", msg.BodyHTML)
	}
	return nil
}
