package events

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jordanella.com/overlay-capture/internal/logging"
)

// EventLogger subscribes to the bus and writes every capture event to a logger,
// optionally teeing into a timestamped file under logDir.
type EventLogger struct {
	logger  *logging.Logger
	bus     EventBus
	subIDs  []SubscriptionID
	logFile *os.File
}

// NewEventLogger creates a new event logger. An empty logDir logs only to the
// given logger's outputs.
func NewEventLogger(bus EventBus, logger *logging.Logger, logDir string) (*EventLogger, error) {
	if logger == nil {
		logger = logging.NewLogger("EventLogger")
	} else {
		logger = logger.Named("EventLogger")
	}

	el := &EventLogger{
		logger: logger,
		bus:    bus,
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		el.logFile = logFile
		logger.AddOutput(logFile)
	}

	for _, eventType := range AllEventTypes {
		el.subIDs = append(el.subIDs, bus.Subscribe(eventType, el.handleEvent))
	}

	return el, nil
}

func (el *EventLogger) handleEvent(event Event) {
	context := map[string]interface{}{
		"event_type": string(event.Type),
		"source":     event.Source,
	}
	for k, v := range event.Data {
		context[k] = v
	}

	if event.Type == EventTypeCaptureFailed {
		el.logger.WarnWithContext(fmt.Sprintf("Event: %s", event.Type), context)
		return
	}
	el.logger.InfoWithContext(fmt.Sprintf("Event: %s", event.Type), context)
}

// Close unsubscribes and closes the log file
func (el *EventLogger) Close() error {
	for _, id := range el.subIDs {
		el.bus.Unsubscribe(id)
	}
	el.subIDs = nil
	if el.logFile != nil {
		return el.logFile.Close()
	}
	return nil
}
