package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go-contact-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contact.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPreview(t *testing.T) {
	path := writeSettings(t, "contact.mail_to: support@example.org\nsite_title: Data Hub\nsite_url: https://data.example.org\n")

	t.Run("Should print the composed message", func(t *testing.T) {
		out, err := run(t, "preview", "--settings", path, "--now", "2024-01-02T03:04:05Z",
			"--set", "email=ada@example.org", "--set", "name=Ada", "--set", "content=Hello")

		require.NoError(t, err)
		assert.Contains(t, out, "To: Data Hub <support@example.org>")
		assert.Contains(t, out, "Subject: Contact from visitor : Question")
		assert.Contains(t, out, "Reply-To: ada@example.org")
		assert.Contains(t, out, "Message-ID: <")
		assert.Contains(t, out, "  Contact Type: Question")
		assert.NotContains(t, out, "<html")
	})

	t.Run("Should include HTML when asked", func(t *testing.T) {
		out, err := run(t, "preview", "--settings", path, "--html",
			"--set", "email=ada@example.org", "--set", "name=Ada", "--set", "content=line1\nline2",
			"--set", "form_variant=suggest_dataset")

		require.NoError(t, err)
		assert.Contains(t, out, "Title of Resource: N/A")
		assert.Contains(t, out, "line1<br>")
	})

	t.Run("Should fail on missing fields", func(t *testing.T) {
		_, err := run(t, "preview", "--settings", path, "--set", "name=Ada")
		assert.EqualError(t, err, "submission has 2 invalid field(s)")
	})

	t.Run("Should reject malformed assignments", func(t *testing.T) {
		_, err := run(t, "preview", "--settings", path, "--set", "email")
		assert.Error(t, err)
	})
}

func TestCheckSettings(t *testing.T) {
	t.Run("Should mask secrets and pass", func(t *testing.T) {
		path := writeSettings(t, "email_to: desk@example.org\ncontact.recaptcha_v3_secret: s3cr3t\ncontact.recaptcha_v3_action: contact_form\n")

		out, err := run(t, "check-settings", "--settings", path)

		require.NoError(t, err)
		assert.Contains(t, out, "CONTACT_RECAPTCHA_V3_SECRET")
		assert.NotContains(t, out, "s3cr3t")
		assert.Contains(t, out, "desk@example.org")
	})

	t.Run("Should report every problem", func(t *testing.T) {
		problems := checkSettings(config.NewSettings(map[string]string{
			config.KeyAddTimestampToSubject:   "sometimes",
			config.KeyRecaptchaScoreThreshold: "2",
			config.KeyRecaptchaTimeout:        "0",
		}))

		assert.Len(t, problems, 4)
	})
}
