package livepush

import (
	"fmt"
	"sort"
	"sync"

	"github.com/asticode/go-astikit"
)

// EventHandler represents an event handler
type EventHandler struct {
	// Indexed by target then by event name then by listener idx
	// We use a map[int]Listener so that deletion is as smooth as possible
	cs  map[interface{}]map[EventName]map[int]EventCallback
	idx int
	m   *sync.Mutex
}

// EventCallback represents an event callback
type EventCallback func(e Event) (deleteListener bool)

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{
		cs: make(map[interface{}]map[EventName]map[int]EventCallback),
		m:  &sync.Mutex{},
	}
}

// Add adds a new callback for a specific target and event name
func (h *EventHandler) Add(target interface{}, eventName EventName, c EventCallback) {
	h.m.Lock()
	defer h.m.Unlock()
	if _, ok := h.cs[target]; !ok {
		h.cs[target] = make(map[EventName]map[int]EventCallback)
	}
	if _, ok := h.cs[target][eventName]; !ok {
		h.cs[target][eventName] = make(map[int]EventCallback)
	}
	h.idx++
	h.cs[target][eventName][h.idx] = c
}

// AddForEventName adds a new callback for a specific event name
func (h *EventHandler) AddForEventName(eventName EventName, c EventCallback) {
	h.Add(nil, eventName, c)
}

// AddForTarget adds a new callback for a specific target
func (h *EventHandler) AddForTarget(target interface{}, c EventCallback) {
	h.Add(target, "", c)
}

// AddForAll adds a new callback for all events
func (h *EventHandler) AddForAll(c EventCallback) {
	h.Add(nil, "", c)
}

func (h *EventHandler) del(target interface{}, eventName EventName, idx int) {
	h.m.Lock()
	defer h.m.Unlock()
	if _, ok := h.cs[target]; !ok {
		return
	}
	if _, ok := h.cs[target][eventName]; !ok {
		return
	}
	delete(h.cs[target][eventName], idx)
}

type eventHandlerCallback struct {
	c         EventCallback
	eventName EventName
	idx       int
	target    interface{}
}

func (h *EventHandler) callbacks(target interface{}, eventName EventName) (cs []eventHandlerCallback) {
	// Lock
	h.m.Lock()
	defer h.m.Unlock()

	// Index callbacks
	ics := make(map[int]eventHandlerCallback)
	var idxs []int
	targets := []interface{}{nil}
	if target != nil {
		targets = append(targets, target)
	}
	for _, target := range targets {
		if _, ok := h.cs[target]; ok {
			eventNames := []EventName{""}
			if eventName != "" {
				eventNames = append(eventNames, eventName)
			}
			for _, eventName := range eventNames {
				if _, ok := h.cs[target][eventName]; ok {
					for idx, c := range h.cs[target][eventName] {
						ics[idx] = eventHandlerCallback{
							c:         c,
							eventName: eventName,
							idx:       idx,
							target:    target,
						}
						idxs = append(idxs, idx)
					}
				}
			}
		}
	}

	// Sort
	sort.Ints(idxs)

	// Append
	for _, idx := range idxs {
		cs = append(cs, ics[idx])
	}
	return
}

// Emit emits an event. A nil handler is a no-op.
func (h *EventHandler) Emit(e Event) {
	if h == nil {
		return
	}
	for _, c := range h.callbacks(e.Target, e.Name) {
		if c.c(e) {
			h.del(c.target, c.eventName, c.idx)
		}
	}
}

// EventHandlerLogAdapter plugs additional logging into the event handler
type EventHandlerLogAdapter func(*EventHandler, *EventLogger)

// EventHandlerLogOptions represents event handler log options
type EventHandlerLogOptions struct {
	Adapters     []EventHandlerLogAdapter
	Logger       astikit.StdLogger
	LoggerLevels map[EventName]astikit.LoggerLevel
}

// Log logs the events going through the handler
func (h *EventHandler) Log(o EventHandlerLogOptions) (l *EventLogger) {
	// Create event logger
	l = newEventLogger(o.Logger)

	// Loop through adapters
	for _, a := range o.Adapters {
		a(h, l)
	}

	// Get logger levels
	lls := map[EventName]astikit.LoggerLevel{
		EventNameError:              astikit.LoggerLevelError,
		EventNameExecStarted:        astikit.LoggerLevelInfo,
		EventNameExecStopped:        astikit.LoggerLevelInfo,
		EventNamePipelineState:      astikit.LoggerLevelInfo,
		EventNameStreamRouted:       astikit.LoggerLevelInfo,
		EventNameTranscoderProgress: astikit.LoggerLevelInfo,
	}
	for n, ll := range o.LoggerLevels {
		lls[n] = ll
	}

	// Error
	h.AddForEventName(EventNameError, func(e Event) bool {
		var t string
		if v, ok := e.Target.(Namer); ok {
			t = v.Name()
		} else if e.Target != nil {
			t = fmt.Sprintf("%p", e.Target)
		}
		if len(t) > 0 {
			t = " (" + t + ")"
		}
		l.Writef(lls[e.Name], "%s%s", e.Payload.(error), t)
		return false
	})

	// Pipeline
	h.AddForEventName(EventNamePipelineState, func(e Event) bool {
		if v, ok := e.Payload.(EventPipelineState); ok {
			l.Writef(lls[e.Name], "livepush: pipeline went from %s to %s", v.From, v.To)
		}
		return false
	})
	h.AddForEventName(EventNameStreamRouted, func(e Event) bool {
		if v, ok := e.Payload.(EventStreamRouted); ok {
			l.Writef(lls[e.Name], "livepush: stream %s: %s", v.Stream, v.Route)
		}
		return false
	})
	h.AddForEventName(EventNameTranscoderProgress, func(e Event) bool {
		if v, ok := e.Payload.(Progress); ok {
			l.Writef(lls[e.Name], "livepush: transcoder of stream #%d: %s", v.Stream, v)
		}
		return false
	})

	// Exec
	h.AddForEventName(EventNameExecStarted, func(e Event) bool {
		if v, ok := e.Payload.(EventExec); ok {
			l.Writef(lls[e.Name], "livepush: executing %v (tag %s)", v.Args, v.Tag)
		}
		return false
	})
	h.AddForEventName(EventNameExecStopped, func(e Event) bool {
		if v, ok := e.Payload.(EventExec); ok {
			l.Writef(lls[e.Name], "livepush: execution with tag %s stopped after %s with status %s", v.Tag, v.Duration, v.Status)
		}
		return false
	})
	return
}
