package domain

import "time"

// EventKind enumerates everything published on the event bus.
type EventKind string

const (
	EventCommandResolved EventKind = "command_resolved"
	EventCommandExecuted EventKind = "command_executed"
	EventModeChanged     EventKind = "mode_changed"
	EventProgramLoaded   EventKind = "program_loaded"
	EventSceneChanged    EventKind = "scene_changed"
	EventSelection       EventKind = "selection"
	EventMessage         EventKind = "message"
	EventRender          EventKind = "render"
	EventStateUpdated    EventKind = "state_updated"
	EventError           EventKind = "error"
	EventExit            EventKind = "exit"
	EventHandlerError    EventKind = "handler_error"
	EventEngineStarted   EventKind = "engine_started"
	EventEngineStopped   EventKind = "engine_stopped"
)

// EventKinds lists every kind, for exhaustive subscribers such as metrics.
var EventKinds = []EventKind{
	EventCommandResolved, EventCommandExecuted, EventModeChanged, EventProgramLoaded,
	EventSceneChanged, EventSelection, EventMessage, EventRender, EventStateUpdated,
	EventError, EventExit, EventHandlerError, EventEngineStarted, EventEngineStopped,
}

// Event is the envelope delivered by the bus. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Command *Command       `json:"command,omitempty"`
	Message string         `json:"message,omitempty"`
	Err     error          `json:"-"`
	Data    map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(kind EventKind) Event {
	return Event{Kind: kind, Timestamp: time.Now()}
}

// With returns a copy of the event with one data attribute set.
func (e Event) With(key string, value any) Event {
	data := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data[key] = value
	e.Data = data
	return e
}
