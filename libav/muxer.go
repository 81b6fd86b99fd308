package pushlibav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/gioelecerati/livepush"
)

// MuxerOptions represents muxer options
type MuxerOptions struct {
	// Forced output format, e.g. flv for rtmp
	FormatName string
	// URL of the output
	URL string
}

// Muxer represents an object capable of muxing packets into an output
type Muxer struct {
	c         *astikit.Closer
	ctxFormat *astiav.FormatContext
	ss        []*astiav.Stream
}

// NewMuxer allocates the output and opens its io context unless the format doesn't need one
func NewMuxer(o MuxerOptions) (m *Muxer, err error) {
	// Create muxer
	m = &Muxer{c: astikit.NewCloser()}

	// Make sure resources are freed on error
	defer func() {
		if err != nil {
			m.Close()
			m = nil
		}
	}()

	// Alloc format context
	if m.ctxFormat, err = astiav.AllocOutputFormatContext(nil, o.FormatName, o.URL); err != nil {
		err = fmt.Errorf("pushlibav: allocating output format context failed: %w", err)
		return
	}
	if m.ctxFormat == nil {
		err = errors.New("pushlibav: allocating output format context failed")
		return
	}

	// Make sure the format context is freed
	m.c.Add(m.ctxFormat.Free)

	// This is a file
	if !m.ctxFormat.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		// Open io context
		var ioContext *astiav.IOContext
		if ioContext, err = astiav.OpenIOContext(o.URL, astiav.NewIOContextFlags(astiav.IOContextFlagWrite)); err != nil {
			err = fmt.Errorf("pushlibav: opening io context failed: %w", err)
			return
		}

		// Make sure the io context is closed
		m.c.AddWithError(ioContext.Close)

		// Update pb
		m.ctxFormat.SetPb(ioContext)
	}
	return
}

// Close closes the muxer
func (m *Muxer) Close() error {
	return m.c.Close()
}

// GlobalHeader implements the livepush.Muxer interface
func (m *Muxer) GlobalHeader() bool {
	return m.ctxFormat.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader)
}

// SetMetadata implements the livepush.Muxer interface
func (m *Muxer) SetMetadata(md map[string]string) (err error) {
	if len(md) == 0 {
		return
	}

	// Build dictionary, the format context takes ownership of it
	var d *astiav.Dictionary
	if d, err = NewMapDictionary(md).parse(); err != nil {
		return
	}
	m.ctxFormat.SetMetadata(d)
	return
}

func (m *Muxer) newStream() (s *astiav.Stream, idx int, err error) {
	if s = m.ctxFormat.NewStream(nil); s == nil {
		err = errors.New("pushlibav: creating new stream failed")
		return
	}
	m.ss = append(m.ss, s)
	idx = s.Index()
	return
}

// AddStream implements the livepush.Muxer interface
func (m *Muxer) AddStream(p livepush.CodecParameters) (idx int, err error) {
	// Get codec parameters
	cp, ok := p.Handle.(*astiav.CodecParameters)
	if !ok || cp == nil {
		err = fmt.Errorf("pushlibav: invalid codec parameters handle %T", p.Handle)
		return
	}

	// Create stream
	var s *astiav.Stream
	if s, idx, err = m.newStream(); err != nil {
		return
	}

	// Copy codec parameters
	if err = cp.Copy(s.CodecParameters()); err != nil {
		err = fmt.Errorf("pushlibav: copying codec parameters failed: %w", err)
		return
	}

	// Codec tags are container specific
	s.CodecParameters().SetCodecTag(astiav.CodecTag(p.CodecTag))
	return
}

// AddEncoderStream implements the livepush.Muxer interface
func (m *Muxer) AddEncoderStream(e livepush.Encoder) (idx int, err error) {
	// Get encoder
	enc, ok := e.(*encoder)
	if !ok {
		err = fmt.Errorf("pushlibav: encoder %T was not created by pushlibav", e)
		return
	}

	// Create stream
	var s *astiav.Stream
	if s, idx, err = m.newStream(); err != nil {
		return
	}

	// Copy codec parameters
	if err = s.CodecParameters().FromCodecContext(enc.ctxCodec); err != nil {
		err = fmt.Errorf("pushlibav: copying codec parameters from codec context failed: %w", err)
		return
	}

	// Set time base
	s.SetTimeBase(enc.ctxCodec.TimeBase())
	return
}

// TimeBase implements the livepush.Muxer interface
func (m *Muxer) TimeBase(idx int) (livepush.Rational, error) {
	if idx < 0 || idx >= len(m.ss) {
		return livepush.Rational{}, fmt.Errorf("pushlibav: invalid output stream #%d", idx)
	}
	return fromRational(m.ss[idx].TimeBase()), nil
}

// WriteHeader implements the livepush.Muxer interface
func (m *Muxer) WriteHeader() error {
	if err := m.ctxFormat.WriteHeader(nil); err != nil {
		return fmt.Errorf("pushlibav: writing header failed: %w", err)
	}
	return nil
}

// WritePacket implements the livepush.Muxer interface
func (m *Muxer) WritePacket(p livepush.Packet) error {
	pkt, err := unwrapPacket(p)
	if err != nil {
		return err
	}
	if err = m.ctxFormat.WriteInterleavedFrame(pkt); err != nil {
		return fmt.Errorf("pushlibav: writing interleaved frame failed: %w", err)
	}
	return nil
}

// WriteTrailer implements the livepush.Muxer interface
func (m *Muxer) WriteTrailer() error {
	if err := m.ctxFormat.WriteTrailer(); err != nil {
		return fmt.Errorf("pushlibav: writing trailer failed: %w", err)
	}
	return nil
}
