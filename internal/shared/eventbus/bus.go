package eventbus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"firestore-utils/internal/shared/logger"

	"go.uber.org/zap"
)

// Event represents a generic event
type Event interface {
	Type() string
	Data() map[string]interface{}
	Timestamp() time.Time
	Source() string
}

// Handler defines the event handler function type
type Handler func(ctx context.Context, event Event) error

// Publisher is the side of the bus the maintenance components depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventBus is a synchronous in-process event bus. Handlers run on the
// publishing goroutine, in subscription order.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   logger.Logger
	config   BusConfig
}

// BusConfig holds configuration for the event bus
type BusConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultBusConfig returns default configuration
func DefaultBusConfig() BusConfig {
	return BusConfig{
		MaxRetries: 1,
		RetryDelay: 100 * time.Millisecond,
	}
}

// NewEventBus creates a new event bus instance
func NewEventBus(log logger.Logger) *EventBus {
	return NewEventBusWithConfig(log, DefaultBusConfig())
}

// NewEventBusWithConfig creates a new event bus with custom configuration
func NewEventBusWithConfig(log logger.Logger, config BusConfig) *EventBus {
	if log == nil {
		log = logger.Nop()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   log,
		config:   config,
	}
}

// Subscribe adds a handler for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debugf("Subscribed handler for event type: %s", eventType)
}

// SubscribeAll adds handler for every maintenance event type.
func (eb *EventBus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		eb.Subscribe(eventType, handler)
	}
}

// Publish sends an event to all registered handlers. The first handler that
// still fails after its retries stops delivery and its error is returned.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.Type()]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	for i, handler := range handlers {
		if err := eb.executeHandler(ctx, event, handler, i); err != nil {
			return err
		}
	}
	return nil
}

// executeHandler executes a handler with retry logic
func (eb *EventBus) executeHandler(ctx context.Context, event Event, handler Handler, handlerIndex int) error {
	var lastErr error

	for attempt := 0; attempt <= eb.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("handler %d for %s: %w", handlerIndex, event.Type(), ctx.Err())
			case <-time.After(eb.config.RetryDelay):
			}
		}

		if err := handler(ctx, event); err != nil {
			lastErr = err
			eb.logger.Warn("Event handler failed",
				zap.String("eventType", event.Type()),
				zap.Int("handler", handlerIndex),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		return nil
	}

	return fmt.Errorf("handler failed after %d attempts: %w", eb.config.MaxRetries+1, lastErr)
}

// Unsubscribe removes all handlers for a specific event type
func (eb *EventBus) Unsubscribe(eventType string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	delete(eb.handlers, eventType)
}

// GetSubscriberCount returns the number of handlers for an event type
func (eb *EventBus) GetSubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// GetEventTypes returns all registered event types, sorted
func (eb *EventBus) GetEventTypes() []string {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	types := make([]string, 0, len(eb.handlers))
	for eventType := range eb.handlers {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}

// BasicEvent implements the Event interface
type BasicEvent struct {
	eventType string
	data      map[string]interface{}
	timestamp time.Time
	source    string
}

// NewBasicEvent creates a new basic event
func NewBasicEvent(eventType string, data map[string]interface{}) Event {
	return NewBasicEventWithSource(eventType, data, "unknown")
}

// NewBasicEventWithSource creates a new basic event with source
func NewBasicEventWithSource(eventType string, data map[string]interface{}, source string) Event {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &BasicEvent{
		eventType: eventType,
		data:      data,
		timestamp: time.Now().UTC(),
		source:    source,
	}
}

func (e *BasicEvent) Type() string {
	return e.eventType
}

func (e *BasicEvent) Data() map[string]interface{} {
	return e.data
}

func (e *BasicEvent) Timestamp() time.Time {
	return e.timestamp
}

func (e *BasicEvent) Source() string {
	return e.source
}

// Event types emitted by the maintenance tools
const (
	EventTypeCollectionPurgeStarted   = "purge.collection_started"
	EventTypeBatchCommitted           = "purge.batch_committed"
	EventTypeCollectionPurgeCompleted = "purge.collection_completed"
	EventTypeCollectionPurgeFailed    = "purge.collection_failed"
	EventTypeDatasetSeeded            = "seed.dataset_completed"
	EventTypeRecordSkipped            = "seed.record_skipped"
	EventTypeRecordFailed             = "seed.record_failed"
)

// AllEventTypes lists every event type above.
var AllEventTypes = []string{
	EventTypeCollectionPurgeStarted,
	EventTypeBatchCommitted,
	EventTypeCollectionPurgeCompleted,
	EventTypeCollectionPurgeFailed,
	EventTypeDatasetSeeded,
	EventTypeRecordSkipped,
	EventTypeRecordFailed,
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
