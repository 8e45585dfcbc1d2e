package schema

import "time"

// EventType defines run event types.
type EventType string

const (
	EventRunStart  EventType = "run_start"
	EventRunEnd    EventType = "run_end"
	EventNodeStart EventType = "node_start"
	EventNodeEnd   EventType = "node_end"
	EventRoute     EventType = "route"
)

// Event describes one step of a graph run for observers and logs.
type Event struct {
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	Node      string      `json:"node,omitempty"`
	Step      int         `json:"step,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Err       error       `json:"-"`
	Timestamp time.Time   `json:"timestamp"`
}

// RouteData records a routing decision.
type RouteData struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Route string `json:"route,omitempty"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType, runID, node string, step int) Event {
	return Event{
		Type:      eventType,
		RunID:     runID,
		Node:      node,
		Step:      step,
		Timestamp: time.Now(),
	}
}

// WithData attaches a payload.
func (e Event) WithData(data interface{}) Event {
	e.Data = data
	return e
}

// WithError attaches an error.
func (e Event) WithError(err error) Event {
	e.Err = err
	return e
}
