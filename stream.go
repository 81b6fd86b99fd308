package livepush

import (
	"strconv"
	"strings"
	"time"
)

// Medium represents the kind of content a stream carries
type Medium int

// Mediums
const (
	MediumUnknown Medium = iota
	MediumVideo
	MediumAudio
	MediumSubtitle
	MediumData
	MediumAttachment
)

func (m Medium) String() string {
	switch m {
	case MediumVideo:
		return "video"
	case MediumAudio:
		return "audio"
	case MediumSubtitle:
		return "subtitle"
	case MediumData:
		return "data"
	case MediumAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// Routable returns whether streams of this medium can reach the output
func (m Medium) Routable() bool {
	return m == MediumVideo || m == MediumAudio || m == MediumSubtitle
}

// CodecParameters represents the codec parameters of a stream.
// Handle holds the library's own parameters (e.g. *astiav.CodecParameters) and is
// what decoders and copy streams are built from.
type CodecParameters struct {
	BitRate    int64
	Channels   int
	CodecID    int
	CodecName  string
	CodecTag   uint32
	Handle     interface{}
	Height     int
	SampleRate int
	Width      int
}

// CopyParameters returns the parameters a copy-routed output stream is registered with.
// A codec tag valid in the source format is often invalid in another one, so it is reset.
func CopyParameters(p CodecParameters) CodecParameters {
	p.CodecTag = 0
	return p
}

// StreamDescriptor describes an input stream. It is immutable once read from the input.
type StreamDescriptor struct {
	Duration   time.Duration
	FrameRate  Rational
	Index      int
	Medium     Medium
	Metadata   map[string]string
	Parameters CodecParameters
	TimeBase   Rational
}

func (s StreamDescriptor) String() string {
	ss := []string{"index: " + strconv.Itoa(s.Index), "medium: " + s.Medium.String()}
	if s.Parameters.CodecName != "" {
		ss = append(ss, "codec: "+s.Parameters.CodecName)
	}
	if s.TimeBase.Valid() {
		ss = append(ss, "timebase: "+s.TimeBase.String())
	}
	if s.Parameters.BitRate > 0 {
		ss = append(ss, "bitrate: "+strconv.FormatInt(s.Parameters.BitRate, 10))
	}
	switch s.Medium {
	case MediumVideo:
		if s.Parameters.Width > 0 && s.Parameters.Height > 0 {
			ss = append(ss, "video size: "+strconv.Itoa(s.Parameters.Width)+"x"+strconv.Itoa(s.Parameters.Height))
		}
		if s.FrameRate.Valid() {
			ss = append(ss, "framerate: "+s.FrameRate.String())
		}
	case MediumAudio:
		if s.Parameters.SampleRate > 0 {
			ss = append(ss, "sample rate: "+strconv.Itoa(s.Parameters.SampleRate))
		}
		if s.Parameters.Channels > 0 {
			ss = append(ss, "channels: "+strconv.Itoa(s.Parameters.Channels))
		}
	}
	return strings.Join(ss, " - ")
}

// BestVideoStream returns the index of the most suitable video stream.
// Streams are scored by resolution then bit rate, ties go to the lowest input index.
// ok is false when there's no video stream.
func BestVideoStream(ss []StreamDescriptor) (idx int, ok bool) {
	var best StreamDescriptor
	for _, s := range ss {
		// Only video
		if s.Medium != MediumVideo {
			continue
		}

		// First candidate
		if !ok {
			best, ok = s, true
			continue
		}

		// Compare
		if betterVideoStream(s, best) {
			best = s
		}
	}
	idx = best.Index
	return
}

func betterVideoStream(a, b StreamDescriptor) bool {
	if pa, pb := a.Parameters.Width*a.Parameters.Height, b.Parameters.Width*b.Parameters.Height; pa != pb {
		return pa > pb
	}
	if a.Parameters.BitRate != b.Parameters.BitRate {
		return a.Parameters.BitRate > b.Parameters.BitRate
	}
	return a.Index < b.Index
}
