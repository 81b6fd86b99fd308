package livepush

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	o, err := ParseOptions("preset=veryfast, tune=zerolatency,,g=60")
	require.NoError(t, err)
	require.Equal(t, Options{"g": "60", "preset": "veryfast", "tune": "zerolatency"}, o)
	require.Equal(t, []string{"g", "preset", "tune"}, o.Keys())
	require.Equal(t, "g=60,preset=veryfast,tune=zerolatency", o.String())

	o, err = ParseOptions("")
	require.NoError(t, err)
	require.Empty(t, o)

	_, err = ParseOptions("preset=veryfast,invalid=1")
	require.ErrorIs(t, err, ErrUnknownOption)

	_, err = ParseOptions("preset")
	require.Error(t, err)

	_, err = ParseOptions("preset=")
	require.Error(t, err)
}

func TestNewEncoderConfig(t *testing.T) {
	s := EncoderSettings{Codec: "libx264", Options: Options{"preset": "veryfast"}}
	vp := VideoParameters{
		FrameRate:         NewRational(30000, 1001),
		Height:            720,
		PixelFormat:       3,
		PixelFormatName:   "yuv420p",
		SampleAspectRatio: NewRational(1, 1),
		Width:             1280,
	}

	// Decoder frame rate wins
	c, err := NewEncoderConfig(s, vp, NewRational(25, 1), true)
	require.NoError(t, err)
	require.Equal(t, EncoderConfig{
		Codec:             "libx264",
		FrameRate:         NewRational(30000, 1001),
		GlobalHeader:      true,
		Height:            720,
		Options:           Options{"preset": "veryfast"},
		PixelFormat:       3,
		PixelFormatName:   "yuv420p",
		SampleAspectRatio: NewRational(1, 1),
		TimeBase:          NewRational(1001, 30000),
		Width:             1280,
	}, c)

	// Options are not shared
	s.Options["tune"] = "zerolatency"
	require.Equal(t, Options{"preset": "veryfast"}, c.Options)

	// Fallback frame rate
	vp.FrameRate = Rational{}
	c, err = NewEncoderConfig(s, vp, NewRational(25, 1), false)
	require.NoError(t, err)
	require.Equal(t, NewRational(25, 1), c.FrameRate)
	require.Equal(t, NewRational(1, 25), c.TimeBase)
	require.False(t, c.GlobalHeader)

	// Errors
	_, err = NewEncoderConfig(s, vp, Rational{}, false)
	require.Error(t, err)
	_, err = NewEncoderConfig(EncoderSettings{}, vp, NewRational(25, 1), false)
	require.Error(t, err)
	vp.Width = 0
	_, err = NewEncoderConfig(s, vp, NewRational(25, 1), false)
	require.Error(t, err)
}
