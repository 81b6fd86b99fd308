package livepush

import (
	"math"
	"math/bits"
	"strconv"
)

// NoTimestamp is the "no timestamp" sentinel. It shares libav's AV_NOPTS_VALUE value.
const NoTimestamp int64 = math.MinInt64

// Rational represents a rational number
type Rational struct {
	Num int
	Den int
}

// NewRational creates a new rational
func NewRational(num, den int) Rational {
	return Rational{Num: num, Den: den}
}

// Invert returns den/num
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

// Valid returns whether both terms are strictly positive
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Float64 returns the rational as a float
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return strconv.Itoa(r.Num) + "/" + strconv.Itoa(r.Den)
}

// Rescale converts ts from one time base to another.
// It computes ts * from.Num * to.Den / (from.Den * to.Num) rounded to the
// nearest integer (halves away from zero) with a 128-bit intermediate.
// NoTimestamp is returned unchanged, and so is ts when a time base is invalid.
func Rescale(ts int64, from, to Rational) int64 {
	if ts == NoTimestamp || !from.Valid() || !to.Valid() {
		return ts
	}
	return mulDivRound(ts, int64(from.Num)*int64(to.Den), int64(from.Den)*int64(to.Num))
}

// mulDivRound returns a*b/c rounded to the nearest with b and c > 0
func mulDivRound(a, b, c int64) int64 {
	// Work on magnitudes
	neg := a < 0
	ua := uint64(a)
	if neg {
		ua = -ua
	}

	// 128-bit product
	hi, lo := bits.Mul64(ua, uint64(b))

	// Add c/2 for rounding
	var carry uint64
	lo, carry = bits.Add64(lo, uint64(c)/2, 0)
	hi += carry

	// Saturate instead of panicking in bits.Div64
	if hi >= uint64(c) {
		if neg {
			return math.MinInt64 + 1
		}
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, uint64(c))
	if q > math.MaxInt64 {
		q = math.MaxInt64
	}
	if neg {
		return -int64(q)
	}
	return int64(q)
}

// RescalePacket rescales pts, dts and duration of a packet
func RescalePacket(p Packet, from, to Rational) {
	p.SetPts(Rescale(p.Pts(), from, to))
	p.SetDts(Rescale(p.Dts(), from, to))
	if d := p.Duration(); d > 0 {
		p.SetDuration(Rescale(d, from, to))
	}
}
