package pushlibav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/gioelecerati/livepush"
)

// Codecs creates libav decoders and encoders
type Codecs struct{}

// NewCodecs creates a new codecs factory
func NewCodecs() *Codecs {
	return &Codecs{}
}

type decoder struct {
	c        *astikit.Closer
	ctxCodec *astiav.CodecContext
	f        *frame
	tb       livepush.Rational
}

// NewDecoder implements the livepush.Codecs interface
func (cs *Codecs) NewDecoder(s livepush.StreamDescriptor) (_ livepush.Decoder, err error) {
	// Get codec parameters
	cp, ok := s.Parameters.Handle.(*astiav.CodecParameters)
	if !ok || cp == nil {
		err = fmt.Errorf("pushlibav: invalid codec parameters handle %T", s.Parameters.Handle)
		return
	}

	// Create decoder
	d := &decoder{
		c:  astikit.NewCloser(),
		tb: s.TimeBase,
	}

	// Make sure resources are freed on error
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	// Find decoder
	var codec *astiav.Codec
	if codec = astiav.FindDecoder(cp.CodecID()); codec == nil {
		err = fmt.Errorf("pushlibav: no decoder found for codec %s", cp.CodecID().Name())
		return
	}

	// Alloc codec context
	if d.ctxCodec = astiav.AllocCodecContext(codec); d.ctxCodec == nil {
		err = errors.New("pushlibav: allocating codec context failed")
		return
	}
	d.c.Add(d.ctxCodec.Free)

	// Update codec context
	if err = cp.ToCodecContext(d.ctxCodec); err != nil {
		err = fmt.Errorf("pushlibav: copying codec parameters to codec context failed: %w", err)
		return
	}
	d.ctxCodec.SetTimeBase(toRational(s.TimeBase))
	if s.FrameRate.Valid() {
		d.ctxCodec.SetFramerate(toRational(s.FrameRate))
	}

	// Open codec
	if err = d.ctxCodec.Open(codec, nil); err != nil {
		err = fmt.Errorf("pushlibav: opening codec failed: %w", err)
		return
	}

	// Alloc frame
	d.f = newFrame()
	d.c.Add(d.f.Free)
	return d, nil
}

func (d *decoder) Close() error {
	return d.c.Close()
}

func (d *decoder) TimeBase() livepush.Rational {
	return d.tb
}

func (d *decoder) VideoParameters() livepush.VideoParameters {
	return livepush.VideoParameters{
		FrameRate:         fromRational(d.ctxCodec.Framerate()),
		Height:            d.ctxCodec.Height(),
		PixelFormat:       int(d.ctxCodec.PixelFormat()),
		PixelFormatName:   d.ctxCodec.PixelFormat().String(),
		SampleAspectRatio: fromRational(d.ctxCodec.SampleAspectRatio()),
		Width:             d.ctxCodec.Width(),
	}
}

func (d *decoder) SendPacket(p livepush.Packet) error {
	// Flush
	if p == nil {
		return codecError(d.ctxCodec.SendPacket(nil))
	}

	// Send packet
	pkt, err := unwrapPacket(p)
	if err != nil {
		return err
	}
	return codecError(d.ctxCodec.SendPacket(pkt))
}

func (d *decoder) ReceiveFrame() (livepush.Frame, error) {
	// Frame is reused
	d.f.Unref()

	// Receive frame
	if err := d.ctxCodec.ReceiveFrame(d.f.Frame); err != nil {
		return nil, codecError(err)
	}
	return d.f, nil
}

type encoder struct {
	c        *astikit.Closer
	cfg      livepush.EncoderConfig
	ctxCodec *astiav.CodecContext
	p        *packet
}

// NewEncoder implements the livepush.Codecs interface
func (cs *Codecs) NewEncoder(cfg livepush.EncoderConfig) (_ livepush.Encoder, err error) {
	// Create encoder
	e := &encoder{
		c:   astikit.NewCloser(),
		cfg: cfg,
	}

	// Make sure resources are freed on error
	defer func() {
		if err != nil {
			e.Close()
		}
	}()

	// Find encoder
	var codec *astiav.Codec
	if codec = astiav.FindEncoderByName(cfg.Codec); codec == nil {
		err = fmt.Errorf("pushlibav: no encoder found with name %s", cfg.Codec)
		return
	}

	// Alloc codec context
	if e.ctxCodec = astiav.AllocCodecContext(codec); e.ctxCodec == nil {
		err = errors.New("pushlibav: allocating codec context failed")
		return
	}
	e.c.Add(e.ctxCodec.Free)

	// Update codec context
	e.ctxCodec.SetFramerate(toRational(cfg.FrameRate))
	e.ctxCodec.SetHeight(cfg.Height)
	e.ctxCodec.SetPixelFormat(astiav.PixelFormat(cfg.PixelFormat))
	e.ctxCodec.SetSampleAspectRatio(toRational(cfg.SampleAspectRatio))
	e.ctxCodec.SetTimeBase(toRational(cfg.TimeBase))
	e.ctxCodec.SetWidth(cfg.Width)
	if cfg.GlobalHeader {
		e.ctxCodec.SetFlags(e.ctxCodec.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	// Dictionary
	var dict *astiav.Dictionary
	if dict, err = NewMapDictionary(cfg.Options).parse(); err != nil {
		err = fmt.Errorf("pushlibav: parsing encoder options failed: %w", err)
		return
	}
	defer dict.Free()

	// Open codec
	if err = e.ctxCodec.Open(codec, dict); err != nil {
		err = fmt.Errorf("pushlibav: opening codec failed: %w", err)
		return
	}

	// Alloc packet
	e.p = newPacket()
	e.c.Add(e.p.Free)
	return e, nil
}

func (e *encoder) Close() error {
	return e.c.Close()
}

func (e *encoder) Config() livepush.EncoderConfig {
	return e.cfg
}

func (e *encoder) TimeBase() livepush.Rational {
	return fromRational(e.ctxCodec.TimeBase())
}

func (e *encoder) SendFrame(f livepush.Frame) error {
	// Flush
	if f == nil {
		return codecError(e.ctxCodec.SendFrame(nil))
	}

	// Send frame
	fm, err := unwrapFrame(f)
	if err != nil {
		return err
	}
	return codecError(e.ctxCodec.SendFrame(fm))
}

func (e *encoder) ReceivePacket() (livepush.Packet, error) {
	// Packet is reused
	e.p.Unref()

	// Receive packet
	if err := e.ctxCodec.ReceivePacket(e.p.Packet); err != nil {
		return nil, codecError(err)
	}
	return e.p, nil
}
