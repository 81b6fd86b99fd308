package pushlibav

import (
	"fmt"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/gioelecerati/livepush"
	"github.com/stretchr/testify/require"
)

type mockedStdLogger struct{ ss []string }

func newMockedStdLogger() *mockedStdLogger {
	return &mockedStdLogger{
		ss: []string{},
	}
}

func (l *mockedStdLogger) Fatal(v ...interface{}) { l.Print(v...) }

func (l *mockedStdLogger) Fatalf(format string, v ...interface{}) { l.Printf(format, v...) }

func (l *mockedStdLogger) Print(v ...interface{}) { l.ss = append(l.ss, fmt.Sprint(v...)) }

func (l *mockedStdLogger) Printf(format string, v ...interface{}) {
	l.ss = append(l.ss, fmt.Sprintf(format, v...))
}

func TestLog(t *testing.T) {
	l := newMockedStdLogger()
	eh := livepush.NewEventHandler()
	el := eh.Log(livepush.EventHandlerLogOptions{Logger: l})
	eh.AddForEventName(EventNameLog, logEventHandlerCallback(el))
	eh.Emit(livepush.Event{Name: EventNameLog, Payload: EventLog{Level: astiav.LogLevelInfo, Msg: "test1\n"}})
	eh.Emit(livepush.Event{Name: EventNameLog, Payload: EventLog{Level: astiav.LogLevelInfo, Msg: "  "}})
	eh.Emit(livepush.Event{Name: EventNameLog, Payload: EventLog{Level: astiav.LogLevelWarning, Msg: "test2", Parent: "flv"}})
	eh.Emit(livepush.Event{Name: EventNameLog, Payload: EventLog{Level: astiav.LogLevelFatal, Msg: "test3"}})
	require.Len(t, l.ss, 3)
	require.Contains(t, l.ss[0], "pushlibav: test1")
	require.Contains(t, l.ss[1], "pushlibav: test2 (flv)")
	require.Contains(t, l.ss[2], "FATAL! pushlibav: test3")
}

func TestParseLogLevel(t *testing.T) {
	l, err := ParseLogLevel("Warning")
	require.NoError(t, err)
	require.Equal(t, astiav.LogLevelWarning, l)
	_, err = ParseLogLevel("invalid")
	require.Error(t, err)
}
