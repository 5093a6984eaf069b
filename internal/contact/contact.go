// Package contact delivers the portfolio's contact form to a message
// provider.
package contact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrInvalidForm        = errors.New("invalid contact form")
	ErrDeliveryFailed     = errors.New("message delivery failed")
	ErrProviderRejected   = errors.New("provider rejected message")
	ErrUnknownProvider    = errors.New("unknown contact provider")
	ErrUnknownField       = errors.New("unknown form field")
)

// Form holds the four visitor-entered fields.
type Form struct {
	Name    string `form:"name" json:"name" validate:"required"`
	Email   string `form:"email" json:"email" validate:"required,email"`
	Subject string `form:"subject" json:"subject" validate:"required"`
	Message string `form:"message" json:"message" validate:"required"`
}

// Empty reports whether every field is blank.
func (f Form) Empty() bool {
	return f == Form{}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists the offending fields keyed by form name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidForm
}

// Validate applies the same constraints the browser enforces on the form.
func (f Form) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "email":
			out.Fields[name] = "Please enter a valid email address."
		default:
			out.Fields[name] = "This field is required."
		}
	}
	return out
}

// Message is what a Sender delivers.
type Message struct {
	FromName  string
	FromEmail string
	Subject   string
	Body      string
	To        string
}

// Sender performs exactly one outbound delivery per call.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
