package livepush

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// TranscoderOptions represents transcoder options
type TranscoderOptions struct {
	Codecs       Codecs
	EventHandler *EventHandler
	Muxer        Muxer
	// Used for progress reporting, defaults to time.Now
	Now      func() time.Time
	Settings EncoderSettings
	Stream   StreamDescriptor
}

// Transcoder re-encodes the packets of one input video stream into one output stream
type Transcoder struct {
	d              Decoder
	e              Encoder
	eh             *EventHandler
	flushed        bool
	m              Muxer
	output         int
	outputTimeBase Rational
	pc             *progressCounter
	resolved       bool
	s              StreamDescriptor
}

// NewTranscoder opens a decoder for the stream, derives the encoder config from what the
// decoder reports, opens the encoder and registers a new output stream on the muxer.
// The muxer's header must not have been written yet.
func NewTranscoder(o TranscoderOptions) (t *Transcoder, err error) {
	// Create transcoder
	t = &Transcoder{
		eh: o.EventHandler,
		m:  o.Muxer,
		pc: newProgressCounter(o.Stream.Index, o.Now),
		s:  o.Stream,
	}

	// Make sure codecs are closed on error
	defer func() {
		if err != nil {
			t.Close()
			t = nil
		}
	}()

	// Create decoder
	if t.d, err = o.Codecs.NewDecoder(o.Stream); err != nil {
		err = &CodecInitError{Err: err, Stage: StageDecode, Stream: o.Stream.Index}
		return
	}

	// Resolve encoder config
	var c EncoderConfig
	if c, err = NewEncoderConfig(o.Settings, t.d.VideoParameters(), o.Stream.FrameRate, o.Muxer.GlobalHeader()); err != nil {
		err = &CodecInitError{Err: err, Stage: StageEncode, Stream: o.Stream.Index}
		return
	}

	// Create encoder
	if t.e, err = o.Codecs.NewEncoder(c); err != nil {
		err = &CodecInitError{Err: err, Stage: StageEncode, Stream: o.Stream.Index}
		return
	}

	// Register output stream
	if t.output, err = o.Muxer.AddEncoderStream(t.e); err != nil {
		err = &MuxError{Err: fmt.Errorf("livepush: adding encoder stream failed: %w", err), Stage: StageSetup, Stream: o.Stream.Index}
		return
	}
	return
}

// Name implements the Namer interface
func (t *Transcoder) Name() string {
	return "transcoder_" + strconv.Itoa(t.s.Index)
}

// Output returns the output stream index
func (t *Transcoder) Output() int {
	return t.output
}

// Stream returns the input stream descriptor
func (t *Transcoder) Stream() StreamDescriptor {
	return t.s
}

// EncoderConfig returns the config the encoder was opened with
func (t *Transcoder) EncoderConfig() EncoderConfig {
	return t.e.Config()
}

// Progress returns a snapshot of the progress counters
func (t *Transcoder) Progress() Progress {
	return t.pc.snapshot()
}

// Flushed returns whether Flush has been called
func (t *Transcoder) Flushed() bool {
	return t.flushed
}

// resolve reads back the output stream time base once the header has been written
func (t *Transcoder) resolve() (err error) {
	if t.outputTimeBase, err = t.m.TimeBase(t.output); err != nil {
		err = &MuxError{Err: fmt.Errorf("livepush: getting output time base failed: %w", err), Stage: StageHeader, Stream: t.s.Index}
		return
	}
	t.resolved = true
	return
}

// Feed sends an input packet to the decoder and drains everything that's available
func (t *Transcoder) Feed(p Packet) (err error) {
	// Check state
	if !t.resolved || t.flushed {
		return fmt.Errorf("livepush: feeding transcoder of stream #%d: %w", t.s.Index, ErrInvalidState)
	}

	// Update counter
	t.pc.p.PacketsReceived++

	// Rescale timestamps
	RescalePacket(p, t.s.TimeBase, t.d.TimeBase())

	// Send packet
	if err = t.d.SendPacket(p); err != nil {
		err = &CodecError{Err: fmt.Errorf("livepush: sending packet failed: %w", err), Stage: StageDecode, Stream: t.s.Index}
		return
	}

	// Drain frames
	if err = t.drainFrames(); err != nil {
		return
	}

	// Report progress
	if pr, ok := t.pc.report(); ok {
		t.eh.Emit(Event{Name: EventNameTranscoderProgress, Payload: pr, Target: t})
	}
	return
}

func (t *Transcoder) drainFrames() (err error) {
	for {
		// Receive frame
		var f Frame
		if f, err = t.d.ReceiveFrame(); err != nil {
			if errors.Is(err, ErrAgain) || errors.Is(err, ErrEOF) {
				err = nil
				return
			}
			err = &CodecError{Err: fmt.Errorf("livepush: receiving frame failed: %w", err), Stage: StageDecode, Stream: t.s.Index}
			return
		}

		// Update counter
		t.pc.p.FramesDecoded++

		// Let the encoder decide the frame type
		f.ClearPictureType()

		// Rescale timestamp
		f.SetPts(Rescale(f.Pts(), t.d.TimeBase(), t.e.TimeBase()))

		// Send frame
		if err = t.e.SendFrame(f); err != nil {
			err = &CodecError{Err: fmt.Errorf("livepush: sending frame failed: %w", err), Stage: StageEncode, Stream: t.s.Index}
			return
		}

		// Drain packets
		if err = t.drainPackets(); err != nil {
			return
		}
	}
}

func (t *Transcoder) drainPackets() (err error) {
	for {
		// Receive packet
		var p Packet
		if p, err = t.e.ReceivePacket(); err != nil {
			if errors.Is(err, ErrAgain) || errors.Is(err, ErrEOF) {
				err = nil
				return
			}
			err = &CodecError{Err: fmt.Errorf("livepush: receiving packet failed: %w", err), Stage: StageEncode, Stream: t.s.Index}
			return
		}

		// Update packet
		p.SetStreamIndex(t.output)
		RescalePacket(p, t.e.TimeBase(), t.outputTimeBase)

		// Write
		if err = t.m.WritePacket(p); err != nil {
			err = &MuxError{Err: fmt.Errorf("livepush: writing packet failed: %w", err), Stage: StageWrite, Stream: t.s.Index}
			return
		}

		// Update counter
		t.pc.p.PacketsEncoded++
	}
}

// Flush drains the decoder then the encoder. It must be called exactly once, after the
// input is exhausted.
func (t *Transcoder) Flush() (err error) {
	// Check state
	if !t.resolved || t.flushed {
		return fmt.Errorf("livepush: flushing transcoder of stream #%d: %w", t.s.Index, ErrInvalidState)
	}
	t.flushed = true

	// Flush decoder
	if err = t.d.SendPacket(nil); err != nil {
		err = &CodecError{Err: fmt.Errorf("livepush: flushing decoder failed: %w", err), Stage: StageDecode, Stream: t.s.Index}
		return
	}
	if err = t.drainFrames(); err != nil {
		return
	}

	// Flush encoder
	if err = t.e.SendFrame(nil); err != nil {
		err = &CodecError{Err: fmt.Errorf("livepush: flushing encoder failed: %w", err), Stage: StageEncode, Stream: t.s.Index}
		return
	}
	if err = t.drainPackets(); err != nil {
		return
	}

	// Report final progress
	t.eh.Emit(Event{Name: EventNameTranscoderProgress, Payload: t.pc.snapshot(), Target: t})
	return
}

// Close closes the decoder and the encoder
func (t *Transcoder) Close() error {
	var errs []error
	if t.e != nil {
		if err := t.e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("livepush: closing encoder failed: %w", err))
		}
	}
	if t.d != nil {
		if err := t.d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("livepush: closing decoder failed: %w", err))
		}
	}
	return errors.Join(errs...)
}
