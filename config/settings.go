package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Site setting keys read by the contact form
const (
	KeyMailTo                  = "contact.mail_to"
	KeyEmailTo                 = "email_to"
	KeyRecipientName           = "contact.recipient_name"
	KeySiteTitle               = "site_title"
	KeySiteURL                 = "site_url"
	KeyAddTimestampToSubject   = "contact.add_timestamp_to_subject"
	KeyRecaptchaAction         = "contact.recaptcha_v3_action"
	KeyRecaptchaSecret         = "contact.recaptcha_v3_secret"
	KeyRecaptchaScoreThreshold = "contact.recaptcha_v3_score_threshold"
	KeyRecaptchaTimeout        = "contact.recaptcha_v3_timeout"
)

// SubjectKey is the subject template setting for a form variant.
func SubjectKey(variant string) string {
	return fmt.Sprintf("contact.%s.subject", variant)
}

// VariantMailToKey is the per-variant recipient override setting.
func VariantMailToKey(variant string) string {
	return fmt.Sprintf("contact.%s.mail_to", variant)
}

// envKeys lists the settings that may be overridden from the environment.
var envKeys = []string{
	KeyMailTo, KeyEmailTo, KeyRecipientName, KeySiteTitle, KeySiteURL,
	KeyAddTimestampToSubject, KeyRecaptchaAction, KeyRecaptchaSecret,
	KeyRecaptchaScoreThreshold, KeyRecaptchaTimeout,
	SubjectKey("contact"), SubjectKey("suggest_dataset"),
	VariantMailToKey("contact"), VariantMailToKey("suggest_dataset"),
}

// defaultSettings fill keys neither the file nor the environment set.
var defaultSettings = map[string]string{
	KeySiteTitle:               "CKAN",
	KeySiteURL:                 "http://localhost:5000",
	KeyRecaptchaScoreThreshold: "0.5",
	KeyRecaptchaTimeout:        "5",
}

// Settings is a read-only key/value store of site configuration.
// It is safe for concurrent use once loaded.
type Settings struct {
	values map[string]string
}

// NewSettings wraps a fixed map, mainly for tests and the CLI.
func NewSettings(values map[string]string) *Settings {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Settings{values: copied}
}

// LoadSettings reads the YAML settings file at path (a missing file is not an error),
// applies environment overrides and fills defaults.
func LoadSettings(path string) (*Settings, error) {
	values := map[string]string{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &values); err != nil {
				return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
			}
		}
	}

	for _, key := range envKeys {
		if value, ok := os.LookupEnv(EnvName(key)); ok {
			values[key] = value
		}
	}

	if err := mergo.Merge(&values, defaultSettings); err != nil {
		return nil, fmt.Errorf("failed to apply default settings: %w", err)
	}

	return &Settings{values: values}, nil
}

// EnvName converts a dotted settings key into its environment variable name,
// e.g. contact.mail_to becomes CONTACT_MAIL_TO.
func EnvName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return strings.ToUpper(r.Replace(key))
}

// Get returns the value of key, or fallback when it is not set.
func (s *Settings) Get(key, fallback string) string {
	if value, ok := s.values[key]; ok {
		return value
	}
	return fallback
}

// Bool interprets key with the usual truthy/falsy words; unknown values give fallback.
func (s *Settings) Bool(key string, fallback bool) bool {
	value, ok := s.values[key]
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on", "y", "t", "1":
		return true
	case "false", "no", "off", "n", "f", "0":
		return false
	}
	return fallback
}

// Float parses key as a float, falling back when unset or invalid.
func (s *Settings) Float(key string, fallback float64) float64 {
	if value, ok := s.values[key]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return fallback
}

// Int parses key as an integer, falling back when unset or invalid.
func (s *Settings) Int(key string, fallback int) int {
	if value, ok := s.values[key]; ok {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return fallback
}

// Keys returns the set keys in sorted order.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
