// Package gate admits at most one analysis submission at a time and spaces
// submissions by a minimum interval.
package gate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Reason is why an admission was refused.
type Reason string

const (
	ReasonTooSoon         Reason = "too_soon"
	ReasonAlreadyInFlight Reason = "already_in_flight"
)

// RejectedError is returned by TryAdmit when a submission may not start.
type RejectedError struct {
	Reason Reason
	// Remaining is the wait before the interval elapses; zero for AlreadyInFlight.
	Remaining time.Duration
}

func (e *RejectedError) Error() string {
	if e.Reason == ReasonTooSoon {
		return fmt.Sprintf("admission rejected: %s (retry in %dms)", e.Reason, e.Remaining.Milliseconds())
	}
	return fmt.Sprintf("admission rejected: %s", e.Reason)
}

// LifecycleState is the request lifecycle shared by every submission of one
// controller. The zero value is idle.
type LifecycleState struct {
	mu             sync.Mutex
	lastRequest    time.Time
	hasRequested   bool
	inFlight       bool
	cancel         context.CancelFunc
	completedCount int64
	// admissions numbers tickets so a stale ticket cannot attach a handle.
	admissions uint64
}

// Snapshot is a copy of LifecycleState for reporting.
type Snapshot struct {
	LastRequest    time.Time `json:"lastRequest,omitempty"`
	HasRequested   bool      `json:"hasRequested"`
	InFlight       bool      `json:"inFlight"`
	CompletedCount int64     `json:"completedCount"`
}

// Gate owns a LifecycleState and the admission policy over it.
type Gate struct {
	state       *LifecycleState
	minInterval time.Duration
}

// New returns a gate over a fresh idle state.
func New(minInterval time.Duration) *Gate {
	return NewWithState(&LifecycleState{}, minInterval)
}

// NewWithState returns a gate over an existing state.
func NewWithState(state *LifecycleState, minInterval time.Duration) *Gate {
	if minInterval < 0 {
		minInterval = 0
	}
	return &Gate{state: state, minInterval: minInterval}
}

// MinInterval returns the configured spacing between admissions.
func (g *Gate) MinInterval() time.Duration {
	return g.minInterval
}

// TryAdmit checks and marks the state in one critical section. The interval
// is checked before the in-flight flag.
func (g *Gate) TryAdmit(now time.Time) (*Ticket, error) {
	s := g.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasRequested {
		if elapsed := now.Sub(s.lastRequest); elapsed < g.minInterval {
			return nil, &RejectedError{Reason: ReasonTooSoon, Remaining: g.minInterval - elapsed}
		}
	}
	if s.inFlight {
		return nil, &RejectedError{Reason: ReasonAlreadyInFlight}
	}

	s.inFlight = true
	s.hasRequested = true
	s.lastRequest = now
	s.admissions++
	return &Ticket{state: s, seq: s.admissions}, nil
}

// Abort fires the cancellation handle of the submission in flight, if any.
// The submission still releases its own ticket.
func (g *Gate) Abort() bool {
	s := g.state
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

func (g *Gate) Snapshot() Snapshot {
	s := g.state
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		LastRequest:    s.lastRequest,
		HasRequested:   s.hasRequested,
		InFlight:       s.inFlight,
		CompletedCount: s.completedCount,
	}
}

// Ticket is the proof of one admission. Release it exactly once; extra
// calls are no-ops.
type Ticket struct {
	state *LifecycleState
	seq   uint64
	once  sync.Once
}

// Attach stores the cancellation handle of the running submission.
func (t *Ticket) Attach(cancel context.CancelFunc) {
	s := t.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight && s.admissions == t.seq {
		s.cancel = cancel
	}
}

// Release returns the gate to idle and counts the submission as completed,
// whatever its outcome.
func (t *Ticket) Release() {
	t.once.Do(func() {
		s := t.state
		s.mu.Lock()
		defer s.mu.Unlock()
		s.inFlight = false
		s.cancel = nil
		s.completedCount++
	})
}
