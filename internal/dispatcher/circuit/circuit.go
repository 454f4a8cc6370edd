// Package circuit wraps sony/gobreaker behind the classification
// service's own State/Config/Manager vocabulary, so call sites in
// internal/dispatcher never import gobreaker directly.
package circuit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrRequestTimeout is returned when a request times out.
	ErrRequestTimeout = errors.New("request timeout")
)

// State mirrors gobreaker.State under this package's own names.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Config configures a Breaker. FailureThreshold is the number of
// consecutive failures that trips the circuit; Timeout is how long the
// circuit stays open before probing again; RequestTimeout bounds an
// individual call (zero means no per-call deadline).
type Config struct {
	FailureThreshold uint32
	HalfOpenMaxCalls uint32
	Timeout          time.Duration
	RequestTimeout   time.Duration
}

// Breaker wraps a single gobreaker.CircuitBreaker, adding a per-call
// timeout (gobreaker itself has no notion of call deadlines).
type Breaker struct {
	cb             *gobreaker.CircuitBreaker
	requestTimeout time.Duration

	mu            sync.Mutex
	totalTimeouts int64
}

// NewBreaker builds a Breaker from Config.
func NewBreaker(name string, cfg Config) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 1
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), requestTimeout: cfg.RequestTimeout}
}

// Call executes fn through the breaker, applying the configured
// per-request timeout and translating gobreaker's sentinel errors into
// this package's ErrCircuitOpen.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	var timeoutCtx context.Context
	var cancel context.CancelFunc
	if b.requestTimeout > 0 {
		timeoutCtx, cancel = context.WithTimeout(ctx, b.requestTimeout)
	} else {
		timeoutCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	_, err := b.cb.Execute(func() (interface{}, error) {
		done := make(chan error, 1)
		go func() { done <- fn(timeoutCtx) }()
		select {
		case err := <-done:
			return nil, err
		case <-timeoutCtx.Done():
			b.mu.Lock()
			b.totalTimeouts++
			b.mu.Unlock()
			return nil, ErrRequestTimeout
		}
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the breaker's current state.
func (b *Breaker) State() State { return fromGobreaker(b.cb.State()) }

// Stats reports the breaker's current counters.
func (b *Breaker) Stats() Stats {
	counts := b.cb.Counts()
	successRate := float64(0)
	if counts.Requests > 0 {
		successRate = float64(counts.TotalSuccesses) / float64(counts.Requests)
	}
	b.mu.Lock()
	timeouts := b.totalTimeouts
	b.mu.Unlock()
	return Stats{
		State:                fromGobreaker(b.cb.State()),
		TotalRequests:        int64(counts.Requests),
		TotalSuccesses:       int64(counts.TotalSuccesses),
		TotalFailures:        int64(counts.TotalFailures),
		TotalTimeouts:        timeouts,
		ConsecutiveFailures:  int(counts.ConsecutiveFailures),
		ConsecutiveSuccesses: int(counts.ConsecutiveSuccesses),
		SuccessRate:          successRate,
	}
}

// Stats is a point-in-time snapshot of a Breaker's counters.
type Stats struct {
	State                State   `json:"state"`
	TotalRequests        int64   `json:"total_requests"`
	TotalSuccesses       int64   `json:"total_successes"`
	TotalFailures        int64   `json:"total_failures"`
	TotalTimeouts        int64   `json:"total_timeouts"`
	ConsecutiveFailures  int     `json:"consecutive_failures"`
	ConsecutiveSuccesses int     `json:"consecutive_successes"`
	SuccessRate          float64 `json:"success_rate"`
}

// IsHealthy reports whether the breaker looks healthy: closed, with a
// success rate of at least 90% once it has handled any requests.
func (s *Stats) IsHealthy() bool {
	return s.State == StateClosed && (s.TotalRequests == 0 || s.SuccessRate >= 0.9)
}

// Manager owns one Breaker per named endpoint.
type Manager struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewManager builds an empty Manager.
func NewManager() *Manager {
	return &Manager{breakers: make(map[string]*Breaker)}
}

// AddEndpoint registers a Breaker for the named endpoint.
func (m *Manager) AddEndpoint(name string, cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakers[name] = NewBreaker(name, cfg)
}

// GetBreaker returns the Breaker for name, if one has been registered.
func (m *Manager) GetBreaker(name string) (*Breaker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.breakers[name]
	return b, ok
}

// Call runs fn through the named endpoint's breaker. If no breaker is
// registered for name, fn runs unguarded.
func (m *Manager) Call(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	b, ok := m.GetBreaker(name)
	if !ok {
		return fn(ctx)
	}
	return b.Call(ctx, fn)
}

// Stats returns a snapshot of every registered endpoint's Stats.
func (m *Manager) Stats() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Stats, len(m.breakers))
	for name, b := range m.breakers {
		out[name] = b.Stats()
	}
	return out
}

// UnhealthyEndpoints lists endpoints whose breaker looks unhealthy.
func (m *Manager) UnhealthyEndpoints() []string {
	var unhealthy []string
	for name, stat := range m.Stats() {
		if !stat.IsHealthy() {
			unhealthy = append(unhealthy, fmt.Sprintf("%s (state: %s, success: %.1f%%)", name, stat.State, stat.SuccessRate*100))
		}
	}
	return unhealthy
}
