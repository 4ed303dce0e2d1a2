// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// AllEvents subscribes to every event type
const AllEvents model.EventType = "*"

// EventBus fans service events out to subscribers
type EventBus struct {
	subscribers map[model.EventType][]chan model.Event
	events      chan model.Event
	closed      bool
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[model.EventType][]chan model.Event),
		events:      make(chan model.Event, 1000),
		logger:      logger,
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}

	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	for _, subs := range eb.subscribers {
		for _, sub := range subs {
			close(sub)
		}
	}
	eb.subscribers = make(map[model.EventType][]chan model.Event)
}

// Stop stops accepting events; subscriber channels close once drained
func (eb *EventBus) Stop() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	close(eb.events)
}

// Publish queues an event, dropping it when the bus is full
func (eb *EventBus) Publish(event model.Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	if eb.closed {
		return
	}

	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("printer_id", event.PrinterID),
		)
	}
}

// Subscribe returns a channel for eventType, or every event for AllEvents.
// The returned func cancels the subscription.
func (eb *EventBus) Subscribe(eventType model.EventType) (<-chan model.Event, func()) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.Event, 100)
	if eb.closed {
		close(subscriber)
		return subscriber, func() {}
	}
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)

	var once sync.Once
	return subscriber, func() {
		once.Do(func() { eb.unsubscribe(eventType, subscriber) })
	}
}

func (eb *EventBus) unsubscribe(eventType model.EventType, subscriber chan model.Event) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subs := eb.subscribers[eventType]
	for i, s := range subs {
		if s == subscriber {
			eb.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			close(subscriber)
			return
		}
	}
}

func (eb *EventBus) distributeEvent(event model.Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, key := range []model.EventType{event.Type, AllEvents} {
		for _, subscriber := range eb.subscribers[key] {
			select {
			case subscriber <- event:
			default:
				// slow subscriber
			}
		}
	}
}
