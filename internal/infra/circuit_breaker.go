package infra

import (
	"errors"
	"sync"
	"time"
)

// Breaker guards a flaky dependency (the Kafka producer). After
// FailureThreshold consecutive failures it opens and rejects calls without
// running them. Once Cooldown has passed it lets a single trial call through
// at a time; SuccessThreshold trial successes close it again, one trial
// failure reopens it.

// BreakerState is the breaker's position.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned by Do when the call was not attempted.
var ErrBreakerOpen = errors.New("circuit breaker open: downstream unavailable")

// BreakerConfig tunes a Breaker. Zero values take the defaults of
// DefaultBreakerConfig.
type BreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
	// OnTransition observes every state change. It runs outside the
	// breaker's lock, after the change is visible to other callers.
	OnTransition func(name string, from, to BreakerState)
}

// DefaultBreakerConfig is tuned for the event producer: Kafka write timeouts
// are long, so the breaker trips early and retries after half a minute.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// BreakerStats is a point-in-time view reported by /health.
type BreakerStats struct {
	Name                string     `json:"name"`
	State               string     `json:"state"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Rejected            uint64     `json:"rejected"`
	OpenedAt            *time.Time `json:"opened_at,omitempty"`
}

type transition struct{ from, to BreakerState }

type Breaker struct {
	mu        sync.Mutex
	cfg       BreakerConfig
	state     BreakerState
	failures  int
	successes int
	inTrial   bool
	openedAt  time.Time
	rejected  uint64
	now       func() time.Time
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig(cfg.Name)
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &Breaker{cfg: cfg, state: BreakerClosed, now: time.Now}
}

// Do runs fn unless the breaker rejects the call. fn's error is returned
// unchanged and counted as a failure.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

// State reports the current position, moving an open breaker whose cooldown
// elapsed to half-open.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	t := b.cooledDown()
	s := b.state
	b.mu.Unlock()
	b.notify(t)
	return s
}

func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	t := b.cooledDown()
	st := BreakerStats{
		Name:                b.cfg.Name,
		State:               b.state.String(),
		ConsecutiveFailures: b.failures,
		Rejected:            b.rejected,
	}
	if b.state != BreakerClosed {
		opened := b.openedAt
		st.OpenedAt = &opened
	}
	b.mu.Unlock()
	b.notify(t)
	return st
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	t := b.cooledDown()
	var err error
	switch {
	case b.state == BreakerOpen, b.state == BreakerHalfOpen && b.inTrial:
		b.rejected++
		err = ErrBreakerOpen
	case b.state == BreakerHalfOpen:
		b.inTrial = true
	}
	b.mu.Unlock()
	b.notify(t)
	return err
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	var t *transition
	trial := b.state == BreakerHalfOpen && b.inTrial
	if trial {
		b.inTrial = false
	}
	switch {
	case err != nil && trial:
		t = b.moveTo(BreakerOpen)
	case err != nil:
		b.failures++
		if b.state == BreakerClosed && b.failures >= b.cfg.FailureThreshold {
			t = b.moveTo(BreakerOpen)
		}
	case trial:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			t = b.moveTo(BreakerClosed)
		}
	default:
		b.failures = 0
	}
	b.mu.Unlock()
	b.notify(t)
}

// cooledDown must be called under lock.
func (b *Breaker) cooledDown() *transition {
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return b.moveTo(BreakerHalfOpen)
	}
	return nil
}

// moveTo must be called under lock.
func (b *Breaker) moveTo(to BreakerState) *transition {
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0
	b.inTrial = false
	if to == BreakerOpen {
		b.openedAt = b.now()
	}
	if from == to {
		return nil
	}
	return &transition{from: from, to: to}
}

func (b *Breaker) notify(t *transition) {
	if t != nil && b.cfg.OnTransition != nil {
		b.cfg.OnTransition(b.cfg.Name, t.from, t.to)
	}
}
