// Package events carries capture lifecycle notifications from the capture
// service to interested observers (journal, CLI, UI shell).
package events

import (
	"sync"
	"time"

	"jordanella.com/overlay-capture/internal/logging"
)

type subscription struct {
	id      SubscriptionID
	handler EventHandler
}

// DefaultEventBus is the default implementation of EventBus
type DefaultEventBus struct {
	subscribers map[EventType][]subscription
	mu          sync.RWMutex

	eventQueue chan Event
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup // processor goroutine
	handlers   sync.WaitGroup // in-flight handler calls

	asyncMu sync.Mutex
	stopped bool
	pending sync.WaitGroup // PublishAsync goroutines

	nextSubID SubscriptionID
	logger    *logging.Logger
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int, logger *logging.Logger) *DefaultEventBus {
	if logger == nil {
		logger = logging.Discard()
	}
	bus := &DefaultEventBus{
		subscribers: make(map[EventType][]subscription),
		eventQueue:  make(chan Event, bufferSize),
		stopCh:      make(chan struct{}),
		nextSubID:   1,
		logger:      logger,
	}

	bus.wg.Add(1)
	go bus.processEvents()

	return bus
}

// Subscribe registers a handler for a specific event type
func (eb *DefaultEventBus) Subscribe(eventType EventType, handler EventHandler) SubscriptionID {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subID := eb.nextSubID
	eb.nextSubID++

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscription{
		id:      subID,
		handler: handler,
	})

	return subID
}

// Unsubscribe removes a subscription by ID
func (eb *DefaultEventBus) Unsubscribe(id SubscriptionID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for eventType, subs := range eb.subscribers {
		for i, sub := range subs {
			if sub.id == id {
				eb.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish queues an event, blocking while the queue is full
func (eb *DefaultEventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-eb.stopCh:
		eb.logger.WarnWithContext("dropped event, bus stopped", map[string]interface{}{"type": event.Type})
		return
	default:
	}

	select {
	case eb.eventQueue <- event:
	case <-eb.stopCh:
		eb.logger.WarnWithContext("dropped event, bus stopped", map[string]interface{}{"type": event.Type})
	}
}

// PublishAsync sends an event asynchronously (non-blocking). Events handed
// over before Stop are still delivered.
func (eb *DefaultEventBus) PublishAsync(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eb.asyncMu.Lock()
	if eb.stopped {
		eb.asyncMu.Unlock()
		eb.logger.WarnWithContext("dropped event, bus stopped", map[string]interface{}{"type": event.Type})
		return
	}
	eb.pending.Add(1)
	eb.asyncMu.Unlock()

	go func() {
		defer eb.pending.Done()
		eb.Publish(event)
	}()
}

// Stop stops the event bus, drains queued events and waits for handlers
func (eb *DefaultEventBus) Stop() {
	eb.stopOnce.Do(func() {
		eb.asyncMu.Lock()
		eb.stopped = true
		eb.asyncMu.Unlock()
		eb.pending.Wait()
		close(eb.stopCh)
	})
	eb.wg.Wait()
	eb.handlers.Wait()
}

func (eb *DefaultEventBus) processEvents() {
	defer eb.wg.Done()

	for {
		select {
		case event := <-eb.eventQueue:
			eb.dispatch(event)

		case <-eb.stopCh:
			for {
				select {
				case event := <-eb.eventQueue:
					eb.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (eb *DefaultEventBus) dispatch(event Event) {
	eb.mu.RLock()
	subs := eb.subscribers[event.Type]
	handlers := make([]EventHandler, len(subs))
	for i, sub := range subs {
		handlers[i] = sub.handler
	}
	eb.mu.RUnlock()

	for _, handler := range handlers {
		eb.handlers.Add(1)
		go eb.safeHandlerCall(handler, event)
	}
}

func (eb *DefaultEventBus) safeHandlerCall(handler EventHandler, event Event) {
	defer eb.handlers.Done()
	defer func() {
		if r := recover(); r != nil {
			eb.logger.WarnWithContext("event handler panic", map[string]interface{}{
				"type":  event.Type,
				"panic": r,
			})
		}
	}()

	handler(event)
}

// GetSubscriberCount returns the number of subscribers for an event type
func (eb *DefaultEventBus) GetSubscriberCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return len(eb.subscribers[eventType])
}

// GetQueueSize returns the current number of events in the queue
func (eb *DefaultEventBus) GetQueueSize() int {
	return len(eb.eventQueue)
}
