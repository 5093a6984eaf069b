package contact

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Provider names accepted by NewSender.
const (
	ProviderEmailJS = "emailjs"
	ProviderSMTP    = "smtp"
	ProviderLog     = "log"
)

// Providers groups every sender's settings.
type Providers struct {
	EmailJS EmailJSConfig
	SMTP    SMTPConfig
}

// NewSender builds the sender registered under name.
func NewSender(name string, p Providers, client *http.Client, logger *zap.Logger) (Sender, error) {
	switch name {
	case ProviderEmailJS:
		s, err := NewEmailJSSender(p.EmailJS, client)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderSMTP:
		s, err := NewSMTPSender(p.SMTP)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderLog:
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// LogSender writes messages to the log instead of delivering them. It is
// meant for local development.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("contact message (log provider)",
		zap.String("from_name", msg.FromName),
		zap.String("from_email", msg.FromEmail),
		zap.String("subject", msg.Subject),
		zap.String("to", msg.To),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
