package pushlibav

import (
	"github.com/asticode/go-astiav"
	"github.com/gioelecerati/livepush"
)

func newCodecParameters(cp *astiav.CodecParameters) livepush.CodecParameters {
	return livepush.CodecParameters{
		BitRate:    cp.BitRate(),
		Channels:   cp.ChannelLayout().Channels(),
		CodecID:    int(cp.CodecID()),
		CodecName:  cp.CodecID().Name(),
		CodecTag:   uint32(cp.CodecTag()),
		Handle:     cp,
		Height:     cp.Height(),
		SampleRate: cp.SampleRate(),
		Width:      cp.Width(),
	}
}

func newStreamDescriptor(s *astiav.Stream) (d livepush.StreamDescriptor) {
	// Create descriptor
	d = livepush.StreamDescriptor{
		Index:      s.Index(),
		Medium:     fromMediaType(s.CodecParameters().MediaType()),
		Metadata:   dictionaryToMap(s.Metadata()),
		Parameters: newCodecParameters(s.CodecParameters()),
		TimeBase:   fromRational(s.TimeBase()),
	}

	// Get frame rate
	if d.FrameRate = fromRational(s.AvgFrameRate()); !d.FrameRate.Valid() {
		d.FrameRate = fromRational(s.RFrameRate())
	}

	// Get duration
	d.Duration = durationFromTimestamp(s.Duration(), d.TimeBase)
	return
}
