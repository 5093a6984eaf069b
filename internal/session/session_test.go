package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyamjith/shyamjith-dev/internal/contact"
	"github.com/shyamjith/shyamjith-dev/internal/nav"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type gaugeStub struct{ v float64 }

func (g *gaugeStub) Set(v float64) { g.v = v }

func trackerFactory(s *Session) error {
	s.Tracker = nav.NewTracker(nil)
	return nil
}

func TestGetCreatesAndReuses(t *testing.T) {
	gauge := &gaugeStub{}
	store, err := NewStore(time.Minute, trackerFactory, WithGauge(gauge))
	require.NoError(t, err)

	first, created, err := store.Get("")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)
	assert.NotNil(t, first.Tracker)

	again, created, err := store.Get(first.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, again)

	other, created, err := store.Get("forged-id")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "forged-id", other.ID)

	found, ok := store.Lookup(first.ID)
	assert.True(t, ok)
	assert.Same(t, first, found)
	_, ok = store.Lookup("forged-id")
	assert.False(t, ok)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, float64(2), gauge.v)
}

func TestGetFactoryError(t *testing.T) {
	store, err := NewStore(time.Minute, func(*Session) error { return errors.New("boom") })
	require.NoError(t, err)

	_, _, err = store.Get("")
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 0, store.Len())
}

func TestSweepEvictsIdleAndReleases(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewStore(10*time.Minute, trackerFactory, WithClock(clock.Now))
	require.NoError(t, err)

	idle, _, err := store.Get("")
	require.NoError(t, err)
	unsubscribe := idle.Tracker.OnChange(func(string, string) {})
	idle.OnClose(unsubscribe)
	require.Equal(t, 1, idle.Tracker.Subscribers())

	clock.Advance(6 * time.Minute)
	fresh, _, err := store.Get("")
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, idle.Tracker.Subscribers())

	_, created, err := store.Get(fresh.ID)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestGetRespectsLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewStore(10*time.Minute, trackerFactory, WithClock(clock.Now), WithLimit(2))
	require.NoError(t, err)

	first, _, err := store.Get("")
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)
	second, _, err := store.Get("")
	require.NoError(t, err)

	_, _, err = store.Get("")
	assert.ErrorIs(t, err, ErrStoreFull)
	assert.Equal(t, 2, store.Len())

	again, created, err := store.Get(second.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, second, again)

	clock.Advance(5 * time.Minute)
	third, created, err := store.Get("")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, store.Len())
	_, ok := store.Lookup(first.ID)
	assert.False(t, ok)
	_, ok = store.Lookup(third.ID)
	assert.True(t, ok)
}

func TestSweepKeepsInFlightSubmission(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	entered := make(chan struct{})
	release := make(chan struct{})
	sender := contact.SenderFunc(func(context.Context, contact.Message) error {
		close(entered)
		<-release
		return nil
	})
	store, err := NewStore(time.Minute, func(s *Session) error {
		sub, err := contact.NewSubmitter(sender, contact.Config{Recipient: "me@example.com"})
		s.Submitter = sub
		return err
	}, WithClock(clock.Now))
	require.NoError(t, err)

	sess, _, err := store.Get("")
	require.NoError(t, err)
	require.NoError(t, sess.Submitter.Fill(contact.Form{
		Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello",
	}))

	done := make(chan struct{})
	go func() {
		_, _ = sess.Submitter.Submit(context.Background())
		close(done)
	}()
	<-entered

	clock.Advance(time.Hour)
	assert.Equal(t, 0, store.Sweep())

	close(release)
	<-done
	assert.Equal(t, 1, store.Sweep())
}

func TestRunClosesSessionsOnShutdown(t *testing.T) {
	store, err := NewStore(time.Minute, trackerFactory)
	require.NoError(t, err)

	sess, _, err := store.Get("")
	require.NoError(t, err)
	closed := make(chan struct{})
	sess.OnClose(func() { close(closed) })

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- store.Run(ctx, time.Hour) }()
	cancel()

	require.NoError(t, <-errc)
	<-closed
	assert.Equal(t, 0, store.Len())
}

func TestNewStoreValidation(t *testing.T) {
	_, err := NewStore(0, trackerFactory)
	assert.Error(t, err)
	_, err = NewStore(time.Minute, nil)
	assert.Error(t, err)
	_, err = NewStore(time.Minute, trackerFactory, WithLimit(-1))
	assert.Error(t, err)
}
