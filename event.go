package livepush

import "time"

// EventName represents an event name
type EventName string

// Default event names
const (
	EventNameError              EventName = "livepush.error"
	EventNameExecStarted        EventName = "livepush.exec.started"
	EventNameExecStopped        EventName = "livepush.exec.stopped"
	EventNamePipelineState      EventName = "livepush.pipeline.state"
	EventNameStreamRouted       EventName = "livepush.stream.routed"
	EventNameTranscoderProgress EventName = "livepush.transcoder.progress"
)

// Event is an event coming out of the pipeline
type Event struct {
	Name    EventName
	Payload interface{}
	Target  interface{}
}

// EventError returns an error event
func EventError(target interface{}, err error) Event {
	return Event{
		Name:    EventNameError,
		Payload: err,
		Target:  target,
	}
}

// EventPipelineState is the payload of EventNamePipelineState
type EventPipelineState struct {
	From State
	To   State
}

// EventStreamRouted is the payload of EventNameStreamRouted
type EventStreamRouted struct {
	Route  Route
	Stream StreamDescriptor
}

// EventExec is the payload of EventNameExecStarted and EventNameExecStopped
type EventExec struct {
	Args     []string
	Duration time.Duration
	Status   string
	Tag      string
}

// Namer represents an object that has a name, used to label event targets
type Namer interface {
	Name() string
}
