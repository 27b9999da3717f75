package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SubmissionEvent describes one step in the life of an analysis submission.
type SubmissionEvent struct {
	EventType EventType     `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	ErrorType string        `json:"error_type,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// EventType represents the type of submission event
type EventType string

const (
	SubmissionStarted   EventType = "submission_started"
	SubmissionCompleted EventType = "submission_completed"
	SubmissionFailed    EventType = "submission_failed"
	// SubmissionRejected is published when the gate refuses admission.
	SubmissionRejected EventType = "submission_rejected"
)

// Observer receives submission events.
type Observer interface {
	OnEvent(ctx context.Context, event SubmissionEvent)
	Name() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	Notify(ctx context.Context, event SubmissionEvent)
}

// LoggingObserver logs submission events
type LoggingObserver struct {
	logger *logrus.Logger
}

func NewLoggingObserver(logger *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event SubmissionEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"session_id": event.SessionID,
		"elapsed_ms": event.Elapsed.Milliseconds(),
	}
	if event.ErrorType != "" {
		fields["error_type"] = event.ErrorType
	}
	if event.Message != "" {
		fields["error"] = event.Message
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case SubmissionStarted:
		entry.Debug("Submission started")
	case SubmissionCompleted:
		entry.Info("Submission completed")
	case SubmissionFailed:
		entry.Error("Submission failed")
	case SubmissionRejected:
		entry.Warn("Submission rejected")
	default:
		entry.Info("Submission event")
	}
}

func (o *LoggingObserver) Name() string {
	return "logging_observer"
}

// Counters is a point-in-time copy of CountingObserver's totals.
type Counters struct {
	Started      int64   `json:"started"`
	Completed    int64   `json:"completed"`
	Failed       int64   `json:"failed"`
	Rejected     int64   `json:"rejected"`
	AvgElapsedMs float64 `json:"avgElapsedMs"`
}

// CountingObserver tallies submission events.
type CountingObserver struct {
	mu           sync.RWMutex
	started      int64
	completed    int64
	failed       int64
	rejected     int64
	totalElapsed time.Duration
}

func NewCountingObserver() *CountingObserver {
	return &CountingObserver{}
}

func (o *CountingObserver) OnEvent(ctx context.Context, event SubmissionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case SubmissionStarted:
		o.started++
	case SubmissionCompleted:
		o.completed++
		o.totalElapsed += event.Elapsed
	case SubmissionFailed:
		o.failed++
	case SubmissionRejected:
		o.rejected++
	}
}

func (o *CountingObserver) Name() string {
	return "counting_observer"
}

// Counters returns current totals.
func (o *CountingObserver) Counters() Counters {
	o.mu.RLock()
	defer o.mu.RUnlock()

	c := Counters{
		Started:   o.started,
		Completed: o.completed,
		Failed:    o.failed,
		Rejected:  o.rejected,
	}
	if o.completed > 0 {
		c.AvgElapsedMs = float64(o.totalElapsed.Milliseconds()) / float64(o.completed)
	}
	return c
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	log       *logrus.Logger
}

func NewEventPublisher(log *logrus.Logger) *EventPublisher {
	return &EventPublisher{observers: make([]Observer, 0), log: log}
}

func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.Name() == observer.Name() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// Notify delivers event to every observer in subscription order before
// returning. A panicking observer is logged and skipped.
func (p *EventPublisher) Notify(ctx context.Context, event SubmissionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		p.deliver(ctx, obs, event)
	}
}

func (p *EventPublisher) deliver(ctx context.Context, obs Observer, event SubmissionEvent) {
	defer func() {
		if r := recover(); r != nil && p.log != nil {
			p.log.WithField("observer", obs.Name()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
