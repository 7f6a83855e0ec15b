package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	resendDefaultBaseURL = "https://api.resend.com"
	resendDefaultFrom    = "noreply@dataquard.ch"
)

// ResendConfig holds configuration for the Resend email notifier.
type ResendConfig struct {
	APIKey  string
	From    string        // sender address
	BaseURL string        // optional override (tests)
	Timeout time.Duration // request-level HTTP timeout
}

// ResendNotifier sends policy-ready emails through the Resend API.
type ResendNotifier struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewResendNotifier creates a new Resend notifier.
func NewResendNotifier(cfg ResendConfig) *ResendNotifier {
	if cfg.From == "" {
		cfg.From = resendDefaultFrom
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = resendDefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &ResendNotifier{
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers a policy-ready email. One attempt only; the caller
// treats a failure as best-effort.
func (n *ResendNotifier) Send(ctx context.Context, msg Message) error {
	payload := resendRequest{
		From:    n.from,
		To:      []string{msg.Contact},
		Subject: "Ihre Datenschutzerklärung ist bereit!",
		HTML:    renderPolicyReadyHTML(msg),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func renderPolicyReadyHTML(msg Message) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Ihre Policy ist fertig!</h1>
  <p>Ihre Datenschutzerklärung für <strong>%s</strong> wurde generiert.</p>
  <blockquote>%s…</blockquote>
  <p><a href="https://dataquard.ch/dashboard">Zur Policy gehen</a></p>
  <p style="font-size: 12px; color: #999;">Job ID: %s</p>
</div>`, msg.Domain, msg.ContentExcerpt, msg.JobID)
}
