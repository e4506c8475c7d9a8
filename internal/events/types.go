package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Capture request lifecycle
	EventTypeCaptureRequested EventType = "capture.requested"
	EventTypeCaptureCompleted EventType = "capture.completed"
	EventTypeCaptureFailed    EventType = "capture.failed"

	// Artifact cache
	EventTypeArtifactPersisted EventType = "artifact.persisted"
	EventTypeArtifactsEvicted  EventType = "artifact.evicted"
)

// AllEventTypes lists every event type the capture service publishes.
var AllEventTypes = []EventType{
	EventTypeCaptureRequested,
	EventTypeCaptureCompleted,
	EventTypeCaptureFailed,
	EventTypeArtifactPersisted,
	EventTypeArtifactsEvicted,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "capture_service")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking until queued)
	Publish(event Event)

	// PublishAsync sends an event asynchronously (non-blocking)
	PublishAsync(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

const sourceCaptureService = "capture_service"

// NewCaptureRequestedEvent creates a capture requested event
func NewCaptureRequestedEvent(requestID, kind string) Event {
	return Event{
		Type:      EventTypeCaptureRequested,
		Source:    sourceCaptureService,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"request_id": requestID,
			"kind":       kind,
		},
	}
}

// NewCaptureCompletedEvent creates a capture completed event
func NewCaptureCompletedEvent(requestID, kind, source string, width, height int, scale float64) Event {
	return Event{
		Type:      EventTypeCaptureCompleted,
		Source:    sourceCaptureService,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"request_id":   requestID,
			"kind":         kind,
			"source":       source,
			"width":        width,
			"height":       height,
			"scale_factor": scale,
		},
	}
}

// NewCaptureFailedEvent creates a capture failed event
func NewCaptureFailedEvent(requestID, kind, reason string, err error) Event {
	return Event{
		Type:      EventTypeCaptureFailed,
		Source:    sourceCaptureService,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"request_id": requestID,
			"kind":       kind,
			"reason":     reason,
			"error":      err.Error(),
		},
	}
}

// NewArtifactPersistedEvent creates an artifact persisted event
func NewArtifactPersistedEvent(requestID, path string, size int) Event {
	return Event{
		Type:      EventTypeArtifactPersisted,
		Source:    sourceCaptureService,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"request_id": requestID,
			"path":       path,
			"bytes":      size,
		},
	}
}

// NewArtifactsEvictedEvent creates an eviction event for the retention sweep
func NewArtifactsEvictedEvent(paths []string) Event {
	return Event{
		Type:      EventTypeArtifactsEvicted,
		Source:    sourceCaptureService,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"paths": paths,
			"count": len(paths),
		},
	}
}
