// Package recaptcha verifies reCAPTCHA v3 tokens with Google's siteverify endpoint.
package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Error is returned whenever a token is not accepted. Reason is meant for logs only.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// Config holds the verification settings.
type Config struct {
	// Secret is the server-side key. An empty secret disables verification.
	Secret         string
	ScoreThreshold float64
	Timeout        time.Duration
	VerifyURL      string
}

// Response is the siteverify payload
type Response struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Client checks tokens against the verification service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client. Zero timeout means 5 seconds.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether a secret is configured
func (c *Client) Enabled() bool {
	return c.cfg.Secret != ""
}

// Check verifies token. It succeeds without a network call when the client is disabled.
// Every failure, including transport errors, is reported as *Error.
func (c *Client) Check(ctx context.Context, token, expectedAction string) error {
	if !c.Enabled() {
		return nil
	}
	if token == "" {
		return &Error{Reason: "missing reCAPTCHA token"}
	}

	form := url.Values{}
	form.Set("secret", c.cfg.Secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Reason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Reason: fmt.Sprintf("verification request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Reason: fmt.Sprintf("verification service returned status %d", resp.StatusCode)}
	}

	var body Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &Error{Reason: fmt.Sprintf("invalid verification response: %v", err)}
	}

	if !body.Success {
		return &Error{Reason: fmt.Sprintf("token rejected: %s", strings.Join(body.ErrorCodes, ","))}
	}
	if expectedAction != "" && body.Action != expectedAction {
		return &Error{Reason: fmt.Sprintf("action mismatch: got %q", body.Action)}
	}
	if body.Score < c.cfg.ScoreThreshold {
		return &Error{Reason: fmt.Sprintf("score %.2f below threshold %.2f", body.Score, c.cfg.ScoreThreshold)}
	}
	return nil
}
