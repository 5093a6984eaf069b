package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultEmailJSEndpoint is the provider's send API.
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSConfig carries the three provider credentials plus an optional
// private access token.
type EmailJSConfig struct {
	ServiceID   string `koanf:"service_id"`
	TemplateID  string `koanf:"template_id"`
	PublicKey   string `koanf:"public_key"`
	AccessToken string `koanf:"access_token"`
	Endpoint    string `koanf:"endpoint"`
}

func (c EmailJSConfig) validate() error {
	var missing []string
	if c.ServiceID == "" {
		missing = append(missing, "service_id")
	}
	if c.TemplateID == "" {
		missing = append(missing, "template_id")
	}
	if c.PublicKey == "" {
		missing = append(missing, "public_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("emailjs credentials not configured: %s", strings.Join(missing, ", "))
	}
	return nil
}

// EmailJSSender posts template parameters to the EmailJS REST API.
type EmailJSSender struct {
	cfg    EmailJSConfig
	client *http.Client
}

// NewEmailJSSender uses http.DefaultClient when client is nil; no timeout
// is added on top of the transport's own.
func NewEmailJSSender(cfg EmailJSConfig, client *http.Client) (*EmailJSSender, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEmailJSEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &EmailJSSender{cfg: cfg, client: client}, nil
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func (s *EmailJSSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(emailJSRequest{
		ServiceID:   s.cfg.ServiceID,
		TemplateID:  s.cfg.TemplateID,
		UserID:      s.cfg.PublicKey,
		AccessToken: s.cfg.AccessToken,
		TemplateParams: map[string]string{
			"from_name":  msg.FromName,
			"from_email": msg.FromEmail,
			"reply_to":   msg.FromEmail,
			"subject":    msg.Subject,
			"message":    msg.Body,
			"to_email":   msg.To,
		},
	})
	if err != nil {
		return fmt.Errorf("encode emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: emailjs status %d: %s", ErrProviderRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
