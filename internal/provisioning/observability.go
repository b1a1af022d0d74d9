package provisioning

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Observer receives structured events during provisioning.
type Observer interface {
	// Printf logs a free-form progress message.
	Printf(format string, v ...interface{})

	// Event emits a structured event.
	Event(event Event)
}

// Event is a structured provisioning event.
type Event struct {
	Type      EventType
	Phase     string
	Message   string
	Resource  string
	Timestamp time.Time
}

// EventType classifies provisioning events.
type EventType string

const (
	EventPhaseStarted   EventType = "phase.started"
	EventPhaseCompleted EventType = "phase.completed"
	EventPhaseFailed    EventType = "phase.failed"

	EventResourceWritten   EventType = "resource.written"
	EventResourceUnchanged EventType = "resource.unchanged"

	EventZoneProvisioned EventType = "zone.provisioned"
	EventZoneFailed      EventType = "zone.failed"
)

// ConsoleObserver implements Observer on the standard log package.
type ConsoleObserver struct{}

// NewConsoleObserver creates a console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{}
}

// Printf implements Observer.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	var parts []string
	parts = append(parts, string(event.Type))
	if event.Phase != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Phase))
	}
	if event.Resource != "" {
		parts = append(parts, "resource="+event.Resource)
	}
	parts = append(parts, event.Message)
	log.Print(strings.Join(parts, " "))
}

// logPhaseStart emits a phase start event.
func logPhaseStart(observer Observer, phase string) {
	observer.Event(Event{Type: EventPhaseStarted, Phase: phase, Message: "starting"})
}

// logPhaseComplete emits a phase completion event.
func logPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// logPhaseFailed emits a phase failure event.
func logPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// logResource emits a written/unchanged event for one artifact.
func logResource(observer Observer, phase, resource string, changed bool) {
	eventType := EventResourceUnchanged
	msg := "unchanged"
	if changed {
		eventType = EventResourceWritten
		msg = "written"
	}
	observer.Event(Event{Type: eventType, Phase: phase, Resource: resource, Message: msg})
}
