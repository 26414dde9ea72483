package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-image-query/internal/logger"
)

// EventType represents the type of analysis lifecycle event
type EventType string

const (
	// AnalysisStarted when a submission passes validation and goes in flight
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when an answer was extracted successfully
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when a submission ends in a classified failure
	AnalysisFailed EventType = "analysis_failed"
	// RetryScheduled when the request client schedules a backoff wait.
	// Intermediate attempt failures are only ever visible here.
	RetryScheduled EventType = "retry_scheduled"
)

// AnalysisEvent describes one point in a submission's lifecycle
type AnalysisEvent struct {
	EventType    EventType     `json:"event_type"`
	Timestamp    time.Time     `json:"timestamp"`
	Question     string        `json:"question,omitempty"`
	MediaType    string        `json:"media_type,omitempty"`
	Attempt      int           `json:"attempt,omitempty"`
	Delay        time.Duration `json:"delay,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver writes events to the structured log
type LoggingObserver struct{}

// NewLoggingObserver creates a logging observer
func NewLoggingObserver() *LoggingObserver {
	return &LoggingObserver{}
}

// OnEvent logs the event with its fields
func (o *LoggingObserver) OnEvent(_ context.Context, event AnalysisEvent) {
	entry := logger.WithFields(logrus.Fields{
		"event_type": event.EventType,
		"media_type": event.MediaType,
	})
	if event.Attempt > 0 || event.EventType == RetryScheduled {
		entry = entry.WithField("attempt", event.Attempt).WithField("delay_ms", event.Delay.Milliseconds())
	}
	if event.ErrorMessage != "" {
		entry = entry.WithField("error_message", event.ErrorMessage)
	}

	switch event.EventType {
	case AnalysisFailed:
		entry.Warn("analysis failed")
	case RetryScheduled:
		entry.Info("retrying upstream request")
	default:
		entry.Info(string(event.EventType))
	}
}

// CompositeObserver fans events out to multiple observers
type CompositeObserver struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewCompositeObserver creates a composite observer
func NewCompositeObserver(observers ...Observer) *CompositeObserver {
	return &CompositeObserver{observers: observers}
}

// Register adds an observer
func (c *CompositeObserver) Register(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// OnEvent delivers the event to every registered observer
func (c *CompositeObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, o := range c.observers {
		o.OnEvent(ctx, event)
	}
}
