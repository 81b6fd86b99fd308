package livepush

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/stretchr/testify/require"
)

type mockedLogger struct {
	m    *sync.Mutex
	msgs map[string]int
}

func newMockedLogger() *mockedLogger {
	return &mockedLogger{
		m:    &sync.Mutex{},
		msgs: make(map[string]int),
	}
}

func (l *mockedLogger) Fatal(v ...interface{}) {
	l.Print(v...)
	os.Exit(1)
}
func (l *mockedLogger) Fatalf(format string, v ...interface{}) {
	l.Printf(format, v...)
	os.Exit(1)
}
func (l *mockedLogger) Print(v ...interface{}) {
	l.m.Lock()
	defer l.m.Unlock()
	l.msgs[fmt.Sprint(v...)]++
}
func (l *mockedLogger) Printf(format string, v ...interface{}) {
	l.m.Lock()
	defer l.m.Unlock()
	l.msgs[fmt.Sprintf(format, v...)]++
}

func (l *mockedLogger) reset() (msgs map[string]int) {
	l.m.Lock()
	defer l.m.Unlock()
	msgs = l.msgs
	l.msgs = make(map[string]int)
	return
}

func TestEventLogger(t *testing.T) {
	ml := newMockedLogger()
	l := newEventLogger(ml)

	// Without merging every message is written
	l.Writef(astikit.LoggerLevelInfo, "frame-%d", 1)
	l.Writef(astikit.LoggerLevelInfo, "frame-%d", 1)
	require.Equal(t, map[string]int{"frame-1": 2}, ml.reset())

	// With merging
	WithMessageMerging(500*time.Millisecond)(nil, l)
	l.Start(context.Background())
	go func() {
		l.Writef(astikit.LoggerLevelError, "decode-%d", 1)
		l.Writef(astikit.LoggerLevelError, "decode-%d", 1)
		l.Writef(astikit.LoggerLevelError, "decode-%d", 2)
		l.Writef(astikit.LoggerLevelError, "decode-%d", 3)
		l.Writef(astikit.LoggerLevelError, "decode-%d", 3)
		l.Writef(astikit.LoggerLevelError, "decode-%d", 3)
		l.Writek(astikit.LoggerLevelDebug, "packet-%d", "packet-1")
		l.Writek(astikit.LoggerLevelDebug, "packet-%d", "packet-2")
		l.Writek(astikit.LoggerLevelDebug, "packet-%d", "packet-3")
		l.Writek(astikit.LoggerLevelWarn, "dts-%d", "dts-1")
		l.Writek(astikit.LoggerLevelWarn, "dts-%d", "dts-2")
		l.Writef(astikit.LoggerLevelError, "msg")
		l.Writef(astikit.LoggerLevelError, "msg")
		l.Writef(astikit.LoggerLevelInfo, "msg")
		l.Writef(astikit.LoggerLevelInfo, "msg")
	}()
	time.Sleep(time.Second)
	require.Equal(t, map[string]int{
		"livepush: pattern repeated once: decode-1":     1,
		"livepush: pattern repeated 2 times: decode-3":  1,
		"livepush: pattern repeated 2 times: packet-%d": 1,
		"livepush: pattern repeated once: dts-1":        1,
		"livepush: pattern repeated once: msg":          2,

		"decode-1": 1,
		"decode-2": 1,
		"decode-3": 1,
		"dts-1":    1,
		"msg":      2,
		"packet-1": 1,
	}, ml.reset())

	// Pending items are dumped on close
	l.Writef(astikit.LoggerLevelInfo, "purge-%d", 1)
	l.Writef(astikit.LoggerLevelInfo, "purge-%d", 1)
	l.Writef(astikit.LoggerLevelInfo, "purge-%d", 1)
	l.Close()
	require.Equal(t, map[string]int{
		"livepush: pattern repeated 2 times: purge-1": 1,

		"purge-1": 1,
	}, ml.reset())
}
