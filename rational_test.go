package livepush

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRational(t *testing.T) {
	r := NewRational(1001, 30000)
	require.Equal(t, "1001/30000", r.String())
	require.Equal(t, NewRational(30000, 1001), r.Invert())
	require.True(t, r.Valid())
	require.False(t, Rational{}.Valid())
	require.False(t, NewRational(1, 0).Valid())
	require.InDelta(t, 0.0333, r.Float64(), 0.0001)
}

func TestRescale(t *testing.T) {
	for _, v := range []struct {
		e        int64
		from, to Rational
		ts       int64
	}{
		{e: 1000, from: NewRational(1, 90000), to: NewRational(1, 1000), ts: 90000},
		{e: 1, from: NewRational(1, 3), to: NewRational(1, 2), ts: 1},
		{e: -1, from: NewRational(1, 3), to: NewRational(1, 2), ts: -1},
		{e: 1, from: NewRational(1, 2), to: NewRational(1, 1), ts: 1},
		{e: -1, from: NewRational(1, 2), to: NewRational(1, 1), ts: -1},
		{e: 0, from: NewRational(1, 90000), to: NewRational(1, 1000), ts: 0},
		{e: 33, from: NewRational(1, 30), to: NewRational(1, 1000), ts: 1},
		{e: 3003, from: NewRational(1001, 30000), to: NewRational(1, 90000), ts: 1},
	} {
		require.Equal(t, v.e, Rescale(v.ts, v.from, v.to), "%d from %s to %s", v.ts, v.from, v.to)
	}
}

func TestRescaleNoTimestamp(t *testing.T) {
	require.Equal(t, NoTimestamp, Rescale(NoTimestamp, NewRational(1, 90000), NewRational(1, 1000)))
	require.Equal(t, int64(10), Rescale(10, Rational{}, NewRational(1, 1000)))
}

func TestRescaleRoundTrip(t *testing.T) {
	// Going through a finer time base and back is lossless
	for _, v := range []struct{ coarse, fine Rational }{
		{coarse: NewRational(1, 1000), fine: NewRational(1, 90000)},
		{coarse: NewRational(1, 30), fine: NewRational(1, 90000)},
		{coarse: NewRational(1001, 30000), fine: NewRational(1, 1000000)},
		{coarse: NewRational(1, 48000), fine: NewRational(1, 1000000000)},
	} {
		for _, ts := range []int64{0, 1, -1, 7, 1024, 123456789, 10 * 3600 * 48000} {
			require.Equal(t, ts, Rescale(Rescale(ts, v.coarse, v.fine), v.fine, v.coarse), "%d through %s and %s", ts, v.coarse, v.fine)
		}
	}
}

func TestRescaleOverflow(t *testing.T) {
	// 100 hours at 90kHz in nanoseconds overflows a 64-bit intermediate product
	ts := int64(100 * 3600 * 90000)
	require.Equal(t, int64(100*3600*1000000000), Rescale(ts, NewRational(1, 90000), NewRational(1, 1000000000)))

	// Saturates
	require.Equal(t, int64(math.MaxInt64), Rescale(math.MaxInt64/2, NewRational(1, 1), NewRational(1, 4)))
	require.Equal(t, int64(math.MinInt64+1), Rescale(math.MinInt64/2, NewRational(1, 1), NewRational(1, 4)))
}

func TestRescalePacket(t *testing.T) {
	p := newFakePacket(0, 90000, 87000, 3000)
	RescalePacket(p, NewRational(1, 90000), NewRational(1, 1000))
	require.Equal(t, int64(1000), p.Pts())
	require.Equal(t, int64(967), p.Dts())
	require.Equal(t, int64(33), p.Duration())

	p = newFakePacket(0, NoTimestamp, NoTimestamp, 0)
	RescalePacket(p, NewRational(1, 90000), NewRational(1, 1000))
	require.Equal(t, NoTimestamp, p.Pts())
	require.Equal(t, NoTimestamp, p.Dts())
	require.Equal(t, int64(0), p.Duration())
}
