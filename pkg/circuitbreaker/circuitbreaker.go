// Package circuitbreaker guards a downstream dependency: after enough
// consecutive failures it fails fast instead of piling more load on a
// struggling service, then probes for recovery after a cool-down.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State is the current mode of the breaker.
type State int

const (
	// Closed admits every request.
	Closed State = iota
	// Open rejects every request until the cool-down elapses.
	Open
	// HalfOpen admits trial requests to probe whether the dependency
	// recovered.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned when the breaker rejects a request without
// running it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker wraps calls to a protected dependency.
type CircuitBreaker interface {
	// Execute runs req unless the circuit is open. The request's error
	// result feeds the failure counting.
	Execute(req func() (interface{}, error)) (interface{}, error)
	// State returns the breaker's current state.
	State() State
}

type breaker struct {
	mu sync.Mutex

	failureThreshold uint32        // consecutive failures that trip the circuit
	successThreshold uint32        // consecutive half-open successes that close it
	cooldown         time.Duration // how long the circuit stays open

	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
}

// New creates a closed breaker. failureThreshold consecutive failures open
// the circuit; after cooldown it goes half-open, and successThreshold
// consecutive successes close it again.
func New(failureThreshold, successThreshold uint32, cooldown time.Duration) CircuitBreaker {
	return &breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
		state:            Closed,
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	if !b.admit() {
		return nil, ErrCircuitOpen
	}

	res, err := req()
	if err != nil {
		b.onFailure()
		return nil, err
	}
	b.onSuccess()
	return res, nil
}

// admit reports whether a request may run now, moving an expired open
// circuit to half-open first.
func (b *breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open && time.Since(b.openedAt) > b.cooldown {
		b.state = HalfOpen
		b.successes = 0
	}
	return b.state != Open
}

func (b *breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = Closed
			b.failures = 0
			b.successes = 0
		}
	case Closed:
		b.failures = 0
	}
}

func (b *breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	}
}

// trip opens the circuit. Callers hold the lock.
func (b *breaker) trip() {
	b.state = Open
	b.openedAt = time.Now()
	b.failures = 0
	b.successes = 0
}
