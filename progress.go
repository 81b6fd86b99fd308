package livepush

import (
	"fmt"
	"time"
)

// Progress reporting thresholds
const (
	ProgressFrameThreshold = 100
	ProgressTimeThreshold  = time.Second
)

// Progress represents the progress of a transcoder
type Progress struct {
	Elapsed         time.Duration
	FramesDecoded   uint64
	PacketsEncoded  uint64
	PacketsReceived uint64
	Stream          int
}

// FPS returns the number of frames decoded per second of wall clock time
func (p Progress) FPS() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.FramesDecoded) / p.Elapsed.Seconds()
}

func (p Progress) String() string {
	return fmt.Sprintf("%d frames decoded, %d packets encoded in %s (%.2f fps)", p.FramesDecoded, p.PacketsEncoded, p.Elapsed.Round(time.Millisecond), p.FPS())
}

// progressCounter is owned by a single transcoder, no locking needed
type progressCounter struct {
	lastAt     time.Time
	lastFrames uint64
	now        func() time.Time
	p          Progress
	startedAt  time.Time
}

func newProgressCounter(stream int, now func() time.Time) *progressCounter {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &progressCounter{
		lastAt:    t,
		now:       now,
		p:         Progress{Stream: stream},
		startedAt: t,
	}
}

func (c *progressCounter) snapshot() Progress {
	p := c.p
	p.Elapsed = c.now().Sub(c.startedAt)
	return p
}

// report returns a snapshot and true when enough frames or time went by since the last report
func (c *progressCounter) report() (p Progress, ok bool) {
	n := c.now()
	if c.p.FramesDecoded-c.lastFrames < ProgressFrameThreshold && n.Sub(c.lastAt) < ProgressTimeThreshold {
		return
	}
	c.lastAt = n
	c.lastFrames = c.p.FramesDecoded
	p = c.p
	p.Elapsed = n.Sub(c.startedAt)
	ok = true
	return
}
