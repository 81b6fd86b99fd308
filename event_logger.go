package livepush

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
)

// EventLogger writes events to a logger, optionally merging repeated messages
type EventLogger struct {
	cancel               context.CancelFunc
	ctx                  context.Context
	is                   map[string]*eventLoggerItem // Indexed by key
	l                    astikit.CompleteLogger
	m                    *sync.Mutex // Locks is
	messageMergingPeriod time.Duration
}

type eventLoggerItem struct {
	count     int
	createdAt time.Time
	key       string
	l         astikit.LoggerLevel
	msg       string
}

func newEventLoggerItem(key, msg string, l astikit.LoggerLevel) *eventLoggerItem {
	return &eventLoggerItem{
		createdAt: time.Now(),
		key:       key,
		l:         l,
		msg:       msg,
	}
}

// WithMessageMerging merges messages sharing the same key during the period
func WithMessageMerging(period time.Duration) EventHandlerLogAdapter {
	return func(_ *EventHandler, l *EventLogger) {
		l.messageMergingPeriod = period
	}
}

func newEventLogger(i astikit.StdLogger) *EventLogger {
	return &EventLogger{
		is: make(map[string]*eventLoggerItem),
		l:  astikit.AdaptStdLogger(i),
		m:  &sync.Mutex{},
	}
}

// Start starts the merging loop if needed
func (l *EventLogger) Start(ctx context.Context) *EventLogger {
	// Create context
	l.ctx, l.cancel = context.WithCancel(ctx)

	// No need to start anything
	if l.messageMergingPeriod == 0 {
		return l
	}

	// Execute in a goroutine since this is blocking
	go func() {
		// Create ticker
		t := time.NewTicker(200 * time.Millisecond)
		defer t.Stop()

		// Loop
		for {
			select {
			case <-t.C:
				l.tick()
			case <-l.ctx.Done():
				return
			}
		}
	}()
	return l
}

// Close stops the merging loop and dumps pending items
func (l *EventLogger) Close() {
	if l.cancel != nil {
		l.cancel()
	}
	l.purge()
}

func (l *EventLogger) tick() {
	// Lock
	l.m.Lock()
	defer l.m.Unlock()

	// Get now
	n := time.Now()

	// Loop through items
	for k, i := range l.is {
		// Period has been reached
		if n.Sub(i.createdAt) > l.messageMergingPeriod {
			l.dumpItem(k, i)
		}
	}
}

func (l *EventLogger) purge() {
	// Lock
	l.m.Lock()
	defer l.m.Unlock()

	// Loop through items
	for k, i := range l.is {
		l.dumpItem(k, i)
	}
}

func (l *EventLogger) dumpItem(k string, i *eventLoggerItem) {
	if i.count > 1 {
		l.write(fmt.Sprintf("livepush: pattern repeated %d times: %s", i.count, i.key), i.l)
	} else if i.count == 1 {
		l.write("livepush: pattern repeated once: "+i.msg, i.l)
	}
	delete(l.is, k)
}

func (l *EventLogger) process(key, msg string, lv astikit.LoggerLevel) {
	// Merge messages
	if l.messageMergingPeriod > 0 {
		// Merge
		if stop := l.merge(key, msg, lv); stop {
			return
		}
	}

	// Write
	l.write(msg, lv)
}

func (l *EventLogger) merge(key, msg string, lv astikit.LoggerLevel) (stop bool) {
	// Lock
	l.m.Lock()
	defer l.m.Unlock()

	// Create final key
	k := fmt.Sprintf("%v", lv) + ":" + key

	// Check whether item exists
	i, ok := l.is[k]
	if ok {
		i.count++
		return true
	}

	// Create item
	l.is[k] = newEventLoggerItem(key, msg, lv)
	return false
}

func (l *EventLogger) write(msg string, lv astikit.LoggerLevel) {
	switch lv {
	case astikit.LoggerLevelDebug:
		l.l.Debug(msg)
	case astikit.LoggerLevelError:
		l.l.Error(msg)
	case astikit.LoggerLevelWarn:
		l.l.Warn(msg)
	default:
		l.l.Info(msg)
	}
}

// Writef writes a formatted message, the message itself being the merging key
func (l *EventLogger) Writef(lv astikit.LoggerLevel, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.process(msg, msg, lv)
}

// Writek writes a message with an explicit merging key
func (l *EventLogger) Writek(lv astikit.LoggerLevel, key, msg string) {
	l.process(key, msg, lv)
}
