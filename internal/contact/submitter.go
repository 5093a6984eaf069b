package contact

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Status is the submitter's in-flight flag.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
)

func (s Status) String() string {
	if s == StatusSubmitting {
		return "submitting"
	}
	return "idle"
}

// Outcome of one delivery attempt.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeRejected Outcome = "rejected"
	OutcomeInvalid  Outcome = "invalid"
)

// Notice is the toast shown to the visitor after a submit.
type Notice struct {
	Kind        string
	Title       string
	Description string
}

var (
	successNotice = Notice{
		Kind:        "success",
		Title:       "Message Sent!",
		Description: "Thank you for reaching out. I'll get back to you soon.",
	}
	failureNotice = Notice{
		Kind:        "error",
		Title:       "Message failed",
		Description: "Sorry, your message could not be sent. Please try again.",
	}
	invalidNotice = Notice{
		Kind:        "error",
		Title:       "Check the form",
		Description: "Some fields are missing or invalid.",
	}
	busyNotice = Notice{
		Kind:        "info",
		Title:       "Still sending",
		Description: "Your previous message is still on its way.",
	}
)

// Result describes a finished Submit call.
type Result struct {
	Outcome Outcome
	Notice  Notice
}

// Recorder observes submission outcomes.
type Recorder interface {
	RecordSubmission(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordSubmission(string) {}

// Config is the submitter's fixed setup.
type Config struct {
	Recipient     string
	SubjectPrefix string
}

// Submitter owns one visitor's form state and guards against concurrent
// submissions.
type Submitter struct {
	mu     sync.Mutex
	form   Form
	status Status

	sender   Sender
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
}

type Option func(*Submitter)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Submitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Submitter) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewSubmitter returns an idle submitter with empty fields.
func NewSubmitter(sender Sender, cfg Config, opts ...Option) (*Submitter, error) {
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	if cfg.Recipient == "" {
		return nil, errors.New("recipient is required")
	}
	s := &Submitter{
		sender:   sender,
		cfg:      cfg,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Form returns a copy of the current field values.
func (s *Submitter) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Submitter) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Set updates one field by its form name. Inputs are disabled while a
// submission is in flight, so edits are rejected then too.
func (s *Submitter) Set(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusSubmitting {
		return ErrSubmissionInFlight
	}
	switch field {
	case "name":
		s.form.Name = value
	case "email":
		s.form.Email = value
	case "subject":
		s.form.Subject = value
	case "message":
		s.form.Message = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Fill replaces all four fields at once.
func (s *Submitter) Fill(f Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusSubmitting {
		return ErrSubmissionInFlight
	}
	s.form = f
	return nil
}

// Submit validates the form and delivers it. A call made while another
// is in flight returns ErrSubmissionInFlight without contacting the
// provider. The delivery is not cancelled when ctx is.
func (s *Submitter) Submit(ctx context.Context) (Result, error) {
	return s.submit(ctx, nil)
}

// SubmitForm replaces the fields with f and submits them, as one step.
func (s *Submitter) SubmitForm(ctx context.Context, f Form) (Result, error) {
	return s.submit(ctx, &f)
}

func (s *Submitter) submit(ctx context.Context, fill *Form) (Result, error) {
	s.mu.Lock()
	if s.status == StatusSubmitting {
		s.mu.Unlock()
		s.recorder.RecordSubmission(string(OutcomeRejected))
		return Result{Outcome: OutcomeRejected, Notice: busyNotice}, ErrSubmissionInFlight
	}
	if fill != nil {
		s.form = *fill
	}
	form := s.form
	if err := form.Validate(); err != nil {
		s.mu.Unlock()
		s.recorder.RecordSubmission(string(OutcomeInvalid))
		return Result{Outcome: OutcomeInvalid, Notice: invalidNotice}, err
	}
	s.status = StatusSubmitting
	s.mu.Unlock()

	err := s.sender.Send(context.WithoutCancel(ctx), s.message(form))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusIdle
	if err != nil {
		s.logger.Error("contact delivery failed",
			zap.String("subject", form.Subject),
			zap.Error(err),
		)
		s.recorder.RecordSubmission(string(OutcomeFailure))
		return Result{Outcome: OutcomeFailure, Notice: failureNotice}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	s.form = Form{}
	s.logger.Info("contact message sent", zap.String("subject", form.Subject))
	s.recorder.RecordSubmission(string(OutcomeSuccess))
	return Result{Outcome: OutcomeSuccess, Notice: successNotice}, nil
}

func (s *Submitter) message(f Form) Message {
	subject := f.Subject
	if s.cfg.SubjectPrefix != "" {
		subject = s.cfg.SubjectPrefix + subject
	}
	return Message{
		FromName:  f.Name,
		FromEmail: f.Email,
		Subject:   subject,
		Body:      f.Message,
		To:        s.cfg.Recipient,
	}
}
