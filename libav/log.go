package pushlibav

import (
	"fmt"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/gioelecerati/livepush"
)

// EventNameLog is emitted for every libav log line
const EventNameLog livepush.EventName = "pushlibav.log"

// EventLog is the payload of EventNameLog
type EventLog struct {
	Format string
	Level  astiav.LogLevel
	Msg    string
	Parent string
}

var logLevels = map[string]astiav.LogLevel{
	"debug":   astiav.LogLevelDebug,
	"error":   astiav.LogLevelError,
	"fatal":   astiav.LogLevelFatal,
	"info":    astiav.LogLevelInfo,
	"panic":   astiav.LogLevelPanic,
	"quiet":   astiav.LogLevelQuiet,
	"verbose": astiav.LogLevelVerbose,
	"warning": astiav.LogLevelWarning,
}

// ParseLogLevel parses a libav log level name
func ParseLogLevel(s string) (astiav.LogLevel, error) {
	l, ok := logLevels[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("pushlibav: unknown log level %q", s)
	}
	return l, nil
}

// WithLog routes libav logs into the event handler and writes them with the event logger
func WithLog(lvl astiav.LogLevel) livepush.EventHandlerLogAdapter {
	return func(h *livepush.EventHandler, l *livepush.EventLogger) {
		// Set log level
		astiav.SetLogLevel(lvl)

		// Set log callback
		astiav.SetLogCallback(func(c astiav.Classer, level astiav.LogLevel, fmt, msg string) {
			// Get parent
			var parent string
			if c != nil {
				if cl := c.Class(); cl != nil {
					parent = cl.String()
				}
			}

			// Emit event
			h.Emit(livepush.Event{
				Name: EventNameLog,
				Payload: EventLog{
					Format: fmt,
					Level:  level,
					Msg:    msg,
					Parent: parent,
				},
			})
		})

		// Handle log
		h.AddForEventName(EventNameLog, logEventHandlerCallback(l))
	}
}

func logEventHandlerCallback(l *livepush.EventLogger) livepush.EventCallback {
	return func(e livepush.Event) bool {
		if v, ok := e.Payload.(EventLog); ok {
			// Sanitize
			format := strings.TrimSpace(v.Format)
			msg := strings.TrimSpace(v.Msg)
			if msg == "" {
				return false
			}

			// Add prefix
			format = "pushlibav: " + format
			msg = "pushlibav: " + msg

			// Add parent
			if v.Parent != "" {
				msg += " (" + v.Parent + ")"
			}

			// Add level
			switch v.Level {
			case astiav.LogLevelDebug, astiav.LogLevelVerbose:
				l.Writek(astikit.LoggerLevelDebug, format, msg)
			case astiav.LogLevelInfo:
				l.Writek(astikit.LoggerLevelInfo, format, msg)
			case astiav.LogLevelError, astiav.LogLevelFatal, astiav.LogLevelPanic:
				if v.Level == astiav.LogLevelFatal {
					msg = "FATAL! " + msg
				} else if v.Level == astiav.LogLevelPanic {
					msg = "PANIC! " + msg
				}
				l.Writek(astikit.LoggerLevelError, format, msg)
			case astiav.LogLevelWarning:
				l.Writek(astikit.LoggerLevelWarn, format, msg)
			}
		}
		return false
	}
}
