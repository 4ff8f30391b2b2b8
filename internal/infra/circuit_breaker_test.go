package infra

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroker = errors.New("broker unreachable")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type transitionLog struct {
	mu    sync.Mutex
	steps []string
}

func (l *transitionLog) record(name string, from, to BreakerState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, name+":"+from.String()+"->"+to.String())
}

func newTestBreaker() (*Breaker, *fakeClock, *transitionLog) {
	clock := &fakeClock{t: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	log := &transitionLog{}
	b := NewBreaker(BreakerConfig{
		Name:             "kafka",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
		OnTransition:     log.record,
	})
	b.now = clock.now
	return b, clock, log
}

func fail() error { return errBroker }
func ok() error   { return nil }

func trip(b *Breaker) {
	for i := 0; i < 3; i++ {
		_ = b.Do(fail)
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _, log := newTestBreaker()
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(fail), errBroker)
	}
	assert.Equal(t, BreakerOpen, b.State())
	assert.Equal(t, []string{"kafka:closed->open"}, log.steps)

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called, "open breaker never calls through")
	assert.Equal(t, uint64(1), b.Stats().Rejected)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _, _ := newTestBreaker()
	_ = b.Do(fail)
	_ = b.Do(fail)
	assert.NoError(t, b.Do(ok))
	_ = b.Do(fail)
	_ = b.Do(fail)
	assert.Equal(t, BreakerClosed, b.State())
	assert.Equal(t, 2, b.Stats().ConsecutiveFailures)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b, clock, log := newTestBreaker()
	trip(b)
	clock.advance(29 * time.Second)
	assert.Equal(t, BreakerOpen, b.State())

	clock.advance(time.Second)
	assert.Equal(t, BreakerHalfOpen, b.State())

	assert.NoError(t, b.Do(ok))
	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.NoError(t, b.Do(ok))
	assert.Equal(t, BreakerClosed, b.State())
	assert.Equal(t, []string{
		"kafka:closed->open",
		"kafka:open->half-open",
		"kafka:half-open->closed",
	}, log.steps)
}

func TestBreaker_TrialFailureReopens(t *testing.T) {
	b, clock, _ := newTestBreaker()
	trip(b)
	clock.advance(30 * time.Second)

	assert.ErrorIs(t, b.Do(fail), errBroker)
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Do(ok), ErrBreakerOpen)

	st := b.Stats()
	require.NotNil(t, st.OpenedAt)
	assert.Equal(t, clock.now(), *st.OpenedAt, "cooldown restarts from the failed trial")
}

func TestBreaker_OneTrialAtATime(t *testing.T) {
	b, clock, _ := newTestBreaker()
	trip(b)
	clock.advance(30 * time.Second)

	var nested error
	err := b.Do(func() error {
		nested = b.Do(ok)
		return nil
	})
	assert.NoError(t, err)
	assert.ErrorIs(t, nested, ErrBreakerOpen, "second caller rejected while a trial runs")
	assert.Equal(t, BreakerHalfOpen, b.State())
}

func TestBreaker_DefaultsApplied(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "kafka"})
	def := DefaultBreakerConfig("kafka")
	assert.Equal(t, def.FailureThreshold, b.cfg.FailureThreshold)
	assert.Equal(t, def.SuccessThreshold, b.cfg.SuccessThreshold)
	assert.Equal(t, def.Cooldown, b.cfg.Cooldown)

	st := b.Stats()
	assert.Equal(t, "closed", st.State)
	assert.Nil(t, st.OpenedAt)
}
