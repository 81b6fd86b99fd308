package livepush

import (
	"fmt"
	"sort"
	"strings"
)

// Option keys recognized by the encoders
const (
	OptionBFrames    = "bf"
	OptionBitRate    = "b"
	OptionBufSize    = "bufsize"
	OptionCRF        = "crf"
	OptionGOPSize    = "g"
	OptionKeyIntMin  = "keyint_min"
	OptionLevel      = "level"
	OptionMaxRate    = "maxrate"
	OptionPreset     = "preset"
	OptionProfile    = "profile"
	OptionThreads    = "threads"
	OptionTune       = "tune"
	OptionX264Params = "x264-params"
)

var recognizedOptions = map[string]bool{
	OptionBFrames:    true,
	OptionBitRate:    true,
	OptionBufSize:    true,
	OptionCRF:        true,
	OptionGOPSize:    true,
	OptionKeyIntMin:  true,
	OptionLevel:      true,
	OptionMaxRate:    true,
	OptionPreset:     true,
	OptionProfile:    true,
	OptionThreads:    true,
	OptionTune:       true,
	OptionX264Params: true,
}

// Options represents validated codec specific options
type Options map[string]string

// ParseOptions parses "key=value,key=value" content.
// Unrecognized keys are rejected rather than silently forwarded to the codec.
func ParseOptions(content string) (o Options, err error) {
	o = make(Options)
	for _, pair := range strings.Split(content, ",") {
		// Skip empty pairs
		if pair = strings.TrimSpace(pair); pair == "" {
			continue
		}

		// Split
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			err = fmt.Errorf("livepush: option %q is not a key=value pair", pair)
			return
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)

		// Set
		if err = o.Set(k, v); err != nil {
			return
		}
	}
	return
}

// Set validates and sets an option
func (o Options) Set(k, v string) error {
	if !recognizedOptions[k] {
		return fmt.Errorf("livepush: option %q: %w", k, ErrUnknownOption)
	}
	if v == "" {
		return fmt.Errorf("livepush: option %q has an empty value", k)
	}
	o[k] = v
	return nil
}

// Keys returns the sorted option keys
func (o Options) Keys() (ks []string) {
	for k := range o {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return
}

func (o Options) String() string {
	var ss []string
	for _, k := range o.Keys() {
		ss = append(ss, k+"="+o[k])
	}
	return strings.Join(ss, ",")
}

func (o Options) clone() Options {
	c := make(Options, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// EncoderSettings represents what the caller chooses about the video encoder
type EncoderSettings struct {
	// Encoder name as known by the codec library (e.g. libx264)
	Codec   string
	Options Options
}

// EncoderConfig represents the fixed parameters an encoder is opened with
type EncoderConfig struct {
	Codec             string
	FrameRate         Rational
	GlobalHeader      bool
	Height            int
	Options           Options
	PixelFormat       int
	PixelFormatName   string
	SampleAspectRatio Rational
	// Always the inverse of FrameRate
	TimeBase Rational
	Width    int
}

// NewEncoderConfig resolves an encoder config out of what the decoder actually reports.
// Dimensions, aspect ratio, pixel format and frame rate are never taken from the caller.
func NewEncoderConfig(s EncoderSettings, vp VideoParameters, fallbackFrameRate Rational, globalHeader bool) (c EncoderConfig, err error) {
	// Check codec
	if s.Codec == "" {
		err = fmt.Errorf("livepush: no encoder codec provided")
		return
	}

	// Check dimensions
	if vp.Width <= 0 || vp.Height <= 0 {
		err = fmt.Errorf("livepush: invalid decoder dimensions %dx%d", vp.Width, vp.Height)
		return
	}

	// Get frame rate
	fr := vp.FrameRate
	if !fr.Valid() {
		fr = fallbackFrameRate
	}
	if !fr.Valid() {
		err = fmt.Errorf("livepush: no valid frame rate for encoder")
		return
	}

	// Create config
	c = EncoderConfig{
		Codec:             s.Codec,
		FrameRate:         fr,
		GlobalHeader:      globalHeader,
		Height:            vp.Height,
		Options:           s.Options.clone(),
		PixelFormat:       vp.PixelFormat,
		PixelFormatName:   vp.PixelFormatName,
		SampleAspectRatio: vp.SampleAspectRatio,
		TimeBase:          fr.Invert(),
		Width:             vp.Width,
	}
	return
}
