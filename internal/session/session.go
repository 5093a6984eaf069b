// Package session keeps per-visitor page state in memory for the length of
// a browsing session.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shyamjith/shyamjith-dev/internal/contact"
	"github.com/shyamjith/shyamjith-dev/internal/nav"
)

// Session is one visitor's navigation and contact-form state.
type Session struct {
	ID        string
	Tracker   *nav.Tracker
	Submitter *contact.Submitter

	mu       sync.Mutex
	lastSeen time.Time
	closers  []func()
	closed   bool
}

// OnClose registers fn to run when the session is evicted.
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close runs the registered release funcs once, newest first.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

// ErrStoreFull is returned by Get when the live-session limit is reached
// and no idle session could be evicted to make room.
var ErrStoreFull = errors.New("session store full")

// Factory builds the state for a new session.
type Factory func(s *Session) error

// Gauge is the subset of a Prometheus gauge the store updates.
type Gauge interface {
	Set(float64)
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl     time.Duration
	limit   int
	factory Factory
	now     func() time.Time
	gauge   Gauge
	logger  *zap.Logger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLimit caps the number of live sessions. Zero means unlimited.
func WithLimit(n int) Option {
	return func(s *Store) {
		s.limit = n
	}
}

func WithGauge(g Gauge) Option {
	return func(s *Store) {
		s.gauge = g
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewStore(ttl time.Duration, factory Factory, opts ...Option) (*Store, error) {
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if factory == nil {
		return nil, errors.New("session factory is required")
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limit < 0 {
		return nil, errors.New("session limit must not be negative")
	}
	return s, nil
}

// Get returns the session for id, creating a fresh one under a new ID when
// id is empty or unknown. created reports whether a new session was made.
// At the limit, idle sessions are swept first and ErrStoreFull is returned
// if none could be evicted.
func (s *Store) Get(id string) (sess *Session, created bool, err error) {
	if sess, ok := s.Lookup(id); ok {
		return sess, false, nil
	}
	if s.limit > 0 && s.Len() >= s.limit {
		s.Sweep()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limit > 0 && len(s.sessions) >= s.limit {
		return nil, false, ErrStoreFull
	}

	sess = &Session{ID: uuid.NewString(), lastSeen: s.now()}
	if err := s.factory(sess); err != nil {
		sess.Close()
		return nil, false, err
	}
	s.sessions[sess.ID] = sess
	s.report()
	return sess, true, nil
}

// Lookup returns an existing session without creating one.
func (s *Store) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the TTL. A session whose contact
// form is mid-submission is kept until the delivery resolves.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var evicted []*Session
	for id, sess := range s.sessions {
		if !sess.idleSince().Before(cutoff) {
			continue
		}
		if sess.Submitter != nil && sess.Submitter.Status() == contact.StatusSubmitting {
			continue
		}
		delete(s.sessions, id)
		evicted = append(evicted, sess)
	}
	s.report()
	s.mu.Unlock()

	for _, sess := range evicted {
		sess.Close()
	}
	if len(evicted) > 0 {
		s.logger.Debug("evicted idle sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done, then closes every session.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.report()
	s.mu.Unlock()

	for _, sess := range all {
		sess.Close()
	}
}

// report must be called with s.mu held.
func (s *Store) report() {
	if s.gauge != nil {
		s.gauge.Set(float64(len(s.sessions)))
	}
}
