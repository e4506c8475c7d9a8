package events

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"jordanella.com/overlay-capture/internal/logging"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus(8, nil)

	var mu sync.Mutex
	var got []Event
	bus.Subscribe(EventTypeCaptureCompleted, func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	bus.Publish(NewCaptureCompletedEvent("req-1", "image", "window", 800, 600, 1.0))
	bus.Publish(NewCaptureRequestedEvent("req-2", "text"))
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Data["request_id"] != "req-1" || got[0].Timestamp.IsZero() {
		t.Errorf("unexpected event: %+v", got[0])
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus(4, nil)
	id := bus.Subscribe(EventTypeCaptureFailed, func(Event) {})
	if bus.GetSubscriberCount(EventTypeCaptureFailed) != 1 {
		t.Fatalf("expected one subscriber")
	}
	bus.Unsubscribe(id)
	if bus.GetSubscriberCount(EventTypeCaptureFailed) != 0 {
		t.Fatalf("expected no subscribers after unsubscribe")
	}
	bus.Stop()
}

func TestHandlerPanicIsContained(t *testing.T) {
	var buf bytes.Buffer
	bus := NewEventBus(4, logging.NewLogger("bus").SetOutput(&buf))
	bus.Subscribe(EventTypeCaptureFailed, func(Event) { panic("boom") })

	bus.Publish(NewCaptureFailedEvent("req", "image", "empty_region", errors.New("Capture region is empty.")))
	bus.Stop()

	if !strings.Contains(buf.String(), "event handler panic") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}

func TestPublishAsyncDeliveredBeforeStop(t *testing.T) {
	bus := NewEventBus(1, nil)

	var mu sync.Mutex
	var got []string
	bus.Subscribe(EventTypeArtifactsEvicted, func(e Event) {
		mu.Lock()
		got = append(got, e.Data["paths"].([]string)[0])
		mu.Unlock()
	})

	for _, p := range []string{"a.png", "b.png", "c.png"} {
		bus.PublishAsync(NewArtifactsEvictedEvent([]string{p}))
	}
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Errorf("delivered %v, want 3 events", got)
	}
}

func TestPublishAsyncAfterStopIsDropped(t *testing.T) {
	var buf bytes.Buffer
	bus := NewEventBus(1, logging.NewLogger("bus").SetOutput(&buf))
	bus.Stop()
	bus.PublishAsync(NewArtifactsEvictedEvent([]string{"a.png"}))
	if !strings.Contains(buf.String(), "dropped event") {
		t.Errorf("expected drop to be logged, got %q", buf.String())
	}
}

func TestPublishAfterStopIsDropped(t *testing.T) {
	bus := NewEventBus(1, nil)
	bus.Stop()
	bus.Publish(NewArtifactsEvictedEvent([]string{"a.png"}))
	bus.Stop()
}

func TestEventLoggerWritesEvents(t *testing.T) {
	var buf bytes.Buffer
	bus := NewEventBus(4, nil)
	el, err := NewEventLogger(bus, logging.NewLogger("cli").SetOutput(&buf), t.TempDir())
	if err != nil {
		t.Fatalf("NewEventLogger: %v", err)
	}

	bus.Publish(NewArtifactPersistedEvent("req-9", "/cache/captures/capture-1.png", 2048))
	bus.Stop()
	if err := el.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Event: artifact.persisted") || !strings.Contains(out, "request_id=req-9") {
		t.Errorf("unexpected log output: %q", out)
	}
}
