// Package events provides an in-process publish/subscribe bus. Services
// publish domain events without knowing who consumes them.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBusClosed is returned when publishing to a closed bus
var ErrBusClosed = errors.New("event bus is closed")

// Event types published by the risk service
const (
	EventRiskAssessed        = "risk.assessed"
	EventPatternsAnalyzed    = "patterns.analyzed"
	EventModelTrainRequested = "model.train_requested"
	EventOperationFailed     = "operation.failed"
	EventSystemStartup       = "system.startup"
	EventSystemShutdown      = "system.shutdown"
)

// Event represents a domain event
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	TraceID   string                 `json:"trace_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
}

// NewEvent creates a new event with auto-generated ID and timestamp
func NewEvent(eventType, source string, payload map[string]interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// WithTraceID adds a trace ID to the event
func (e Event) WithTraceID(traceID string) Event {
	e.TraceID = traceID
	return e
}

// WithRequestID adds the originating request ID to the event
func (e Event) WithRequestID(requestID string) Event {
	e.RequestID = requestID
	return e
}

// JSON serializes the event to JSON
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventHandler processes events
type EventHandler func(ctx context.Context, event Event) error

// Subscription represents an event subscription
type Subscription struct {
	ID        string
	EventType string
	Handler   EventHandler
}

// Bus is the event bus interface
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType string, handler EventHandler) *Subscription
	SubscribeAll(handler EventHandler) *Subscription
	Close() error
}

// wildcard is the EventType of subscriptions that receive every event
const wildcard = "*"

// MemoryBus is an in-memory event bus implementation
type MemoryBus struct {
	mu            sync.RWMutex
	subscriptions map[string][]*Subscription
	closed        bool
}

// NewMemoryBus creates a new in-memory event bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subscriptions: make(map[string][]*Subscription),
	}
}

// Publish delivers the event to type subscribers, then wildcard subscribers,
// in subscription order. Every handler runs; handler errors are joined.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := make([]*Subscription, 0, len(b.subscriptions[event.Type])+len(b.subscriptions[wildcard]))
	handlers = append(handlers, b.subscriptions[event.Type]...)
	if event.Type != wildcard {
		handlers = append(handlers, b.subscriptions[wildcard]...)
	}
	b.mu.RUnlock()

	var errs []error
	for _, sub := range handlers {
		if err := sub.Handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe subscribes to events of a specific type
func (b *MemoryBus) Subscribe(eventType string, handler EventHandler) *Subscription {
	sub := &Subscription{
		ID:        uuid.New().String(),
		EventType: eventType,
		Handler:   handler,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[eventType] = append(b.subscriptions[eventType], sub)

	return sub
}

// SubscribeAll subscribes to all events
func (b *MemoryBus) SubscribeAll(handler EventHandler) *Subscription {
	return b.Subscribe(wildcard, handler)
}

// Close rejects further publishing
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
