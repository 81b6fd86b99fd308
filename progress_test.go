package livepush

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	clk := newFakeClock()
	c := newProgressCounter(3, clk.now)

	// Not enough frames nor time
	c.p.FramesDecoded = 99
	_, ok := c.report()
	require.False(t, ok)

	// Enough frames
	c.p.FramesDecoded = 100
	p, ok := c.report()
	require.True(t, ok)
	require.Equal(t, 3, p.Stream)
	_, ok = c.report()
	require.False(t, ok)

	// Enough time
	clk.add(time.Second)
	c.p.FramesDecoded = 130
	p, ok = c.report()
	require.True(t, ok)
	require.Equal(t, time.Second, p.Elapsed)
	require.Equal(t, float64(130), p.FPS())
	require.Equal(t, "130 frames decoded, 0 packets encoded in 1s (130.00 fps)", p.String())
	require.Equal(t, float64(0), Progress{}.FPS())
}
