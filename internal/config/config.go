// Package config loads the site's settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/shyamjith/shyamjith-dev/internal/contact"
)

// EnvPrefix namespaces environment overrides. A double underscore
// separates levels: PORTFOLIO_EMAILJS__SERVICE_ID -> emailjs.service_id.
const EnvPrefix = "PORTFOLIO_"

type Server struct {
	Port            string        `koanf:"port"`
	Mode            string        `koanf:"mode"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	SessionTTL      time.Duration `koanf:"session_ttl"`
	MaxSessions     int           `koanf:"max_sessions"`
	SecureCookies   bool          `koanf:"secure_cookies"`
}

type Log struct {
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"`
}

type Contact struct {
	Provider      string `koanf:"provider"`
	Recipient     string `koanf:"recipient"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

type Nav struct {
	Lookahead float64 `koanf:"lookahead"`
	// HomeSpan is "body" (home covers the whole document) or "section"
	// (home uses its own element's bounds).
	HomeSpan string `koanf:"home_span"`
}

type Resume struct {
	Path     string `koanf:"path"`
	Filename string `koanf:"filename"`
}

type Config struct {
	Server  Server                `koanf:"server"`
	Log     Log                   `koanf:"log"`
	Contact Contact               `koanf:"contact"`
	EmailJS contact.EmailJSConfig `koanf:"emailjs"`
	SMTP    contact.SMTPConfig    `koanf:"smtp"`
	Nav     Nav                   `koanf:"nav"`
	Resume  Resume                `koanf:"resume"`
	// ContentPath overrides the embedded portfolio document.
	ContentPath string `koanf:"content_path"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Port:            "8080",
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
			SessionTTL:      30 * time.Minute,
			MaxSessions:     10000,
		},
		Log: Log{
			Level:    "info",
			Encoding: "json",
		},
		Contact: Contact{
			Provider:  contact.ProviderLog,
			Recipient: "shyamjith.dev@email.com",
		},
		EmailJS: contact.EmailJSConfig{
			Endpoint: contact.DefaultEmailJSEndpoint,
		},
		SMTP: contact.SMTPConfig{
			Host: "smtp.gmail.com",
			Port: "587",
		},
		Nav: Nav{
			Lookahead: 100,
			HomeSpan:  "body",
		},
		Resume: Resume{
			Path:     "assets/resume/Shyam-Jith-CV.pdf",
			Filename: "Shyam-Jith-CV.pdf",
		},
	}
}

// Load layers defaults, the YAML file at path (skipped when missing),
// .env entries and PORTFOLIO_* variables. PORT is honoured for platforms
// that inject it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" && os.Getenv(EnvPrefix+"SERVER__PORT") == "" {
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validModes = map[string]bool{"debug": true, "release": true, "test": true}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if !validModes[c.Server.Mode] {
		errs = append(errs, fmt.Errorf("invalid server.mode %q: must be one of debug, release, test", c.Server.Mode))
	}
	if c.Server.SessionTTL <= 0 {
		errs = append(errs, errors.New("server.session_ttl must be positive"))
	}
	if c.Server.MaxSessions < 0 {
		errs = append(errs, errors.New("server.max_sessions must not be negative"))
	}
	switch c.Contact.Provider {
	case contact.ProviderEmailJS, contact.ProviderSMTP, contact.ProviderLog:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", contact.ErrUnknownProvider, c.Contact.Provider))
	}
	if c.Contact.Recipient == "" {
		errs = append(errs, errors.New("contact.recipient is required"))
	}
	if c.Nav.HomeSpan != "body" && c.Nav.HomeSpan != "section" {
		errs = append(errs, fmt.Errorf("invalid nav.home_span %q: must be body or section", c.Nav.HomeSpan))
	}
	return errors.Join(errs...)
}

// Providers returns the sender settings for contact.NewSender.
func (c *Config) Providers() contact.Providers {
	return contact.Providers{EmailJS: c.EmailJS, SMTP: c.SMTP}
}
