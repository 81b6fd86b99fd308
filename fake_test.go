package livepush

import (
	"errors"
	"fmt"
	"io"
	"time"
)

type fakePacket struct {
	dts, duration, pos, pts int64
	streamIndex             int
}

func newFakePacket(streamIndex int, pts, dts, duration int64) *fakePacket {
	return &fakePacket{
		dts:         dts,
		duration:    duration,
		pos:         1234,
		pts:         pts,
		streamIndex: streamIndex,
	}
}

func (p *fakePacket) Dts() int64 { return p.dts }
func (p *fakePacket) Duration() int64 { return p.duration }
func (p *fakePacket) Pts() int64 { return p.pts }
func (p *fakePacket) SetDts(v int64) { p.dts = v }
func (p *fakePacket) SetDuration(v int64) { p.duration = v }
func (p *fakePacket) SetPos(v int64) { p.pos = v }
func (p *fakePacket) SetPts(v int64) { p.pts = v }
func (p *fakePacket) SetStreamIndex(v int) { p.streamIndex = v }
func (p *fakePacket) StreamIndex() int { return p.streamIndex }

func (p *fakePacket) clone() *fakePacket {
	c := *p
	return &c
}

func (p *fakePacket) String() string {
	return fmt.Sprintf("#%d pts=%d dts=%d", p.streamIndex, p.pts, p.dts)
}

type fakeFrame struct {
	pictureType string
	pts         int64
}

func (f *fakeFrame) ClearPictureType() { f.pictureType = "" }
func (f *fakeFrame) Pts() int64 { return f.pts }
func (f *fakeFrame) SetPts(v int64) { f.pts = v }

type fakeDemuxer struct {
	err error
	md  map[string]string
	ps  []*fakePacket
	ss  []StreamDescriptor
}

func (d *fakeDemuxer) Metadata() map[string]string { return d.md }
func (d *fakeDemuxer) Streams() []StreamDescriptor { return d.ss }

func (d *fakeDemuxer) ReadPacket() (Packet, error) {
	if len(d.ps) == 0 {
		if d.err != nil {
			return nil, d.err
		}
		return nil, io.EOF
	}
	p := d.ps[0]
	d.ps = d.ps[1:]
	return p, nil
}

type fakeMuxerStream struct {
	encoder Encoder
	params  *CodecParameters
	tb      Rational
}

// fakeMuxer records calls and fails on out of order ones
type fakeMuxer struct {
	calls         []string
	errHeader     error
	errWrite      error
	globalHeader  bool
	headerWritten bool
	headerTB      map[int]Rational // Time bases forced once the header has been written
	md            map[string]string
	ps            []*fakePacket
	ss            []fakeMuxerStream
	trailer       bool
}

func newFakeMuxer() *fakeMuxer {
	return &fakeMuxer{headerTB: make(map[int]Rational)}
}

func (m *fakeMuxer) call(name string) error {
	m.calls = append(m.calls, name)
	if m.trailer {
		return fmt.Errorf("fake: %s after trailer", name)
	}
	return nil
}

func (m *fakeMuxer) addStream(s fakeMuxerStream) (int, error) {
	if m.headerWritten {
		return 0, errors.New("fake: adding stream after header")
	}
	m.ss = append(m.ss, s)
	return len(m.ss) - 1, nil
}

func (m *fakeMuxer) AddEncoderStream(e Encoder) (int, error) {
	if err := m.call("add_encoder_stream"); err != nil {
		return 0, err
	}
	return m.addStream(fakeMuxerStream{encoder: e, tb: e.TimeBase()})
}

func (m *fakeMuxer) AddStream(p CodecParameters) (int, error) {
	if err := m.call("add_stream"); err != nil {
		return 0, err
	}
	return m.addStream(fakeMuxerStream{params: &p, tb: NewRational(1, 90000)})
}

func (m *fakeMuxer) GlobalHeader() bool { return m.globalHeader }

func (m *fakeMuxer) SetMetadata(md map[string]string) error {
	if err := m.call("set_metadata"); err != nil {
		return err
	}
	if m.headerWritten {
		return errors.New("fake: setting metadata after header")
	}
	m.md = md
	return nil
}

func (m *fakeMuxer) TimeBase(idx int) (Rational, error) {
	if idx < 0 || idx >= len(m.ss) {
		return Rational{}, fmt.Errorf("fake: invalid stream #%d", idx)
	}
	return m.ss[idx].tb, nil
}

func (m *fakeMuxer) WriteHeader() error {
	if err := m.call("write_header"); err != nil {
		return err
	}
	if m.headerWritten {
		return errors.New("fake: header written twice")
	}
	if m.errHeader != nil {
		return m.errHeader
	}
	if len(m.ss) == 0 {
		return errors.New("fake: no streams")
	}
	m.headerWritten = true
	for idx, tb := range m.headerTB {
		m.ss[idx].tb = tb
	}
	return nil
}

func (m *fakeMuxer) WritePacket(p Packet) error {
	if err := m.call("write_packet"); err != nil {
		return err
	}
	if !m.headerWritten {
		return errors.New("fake: writing packet before header")
	}
	if p.StreamIndex() < 0 || p.StreamIndex() >= len(m.ss) {
		return fmt.Errorf("fake: invalid stream #%d", p.StreamIndex())
	}
	if m.errWrite != nil {
		return m.errWrite
	}
	m.ps = append(m.ps, p.(*fakePacket).clone())
	return nil
}

func (m *fakeMuxer) WriteTrailer() error {
	if err := m.call("write_trailer"); err != nil {
		return err
	}
	if !m.headerWritten {
		return errors.New("fake: writing trailer before header")
	}
	for idx, s := range m.ss {
		if s.encoder == nil {
			continue
		}
		if e, ok := s.encoder.(*fakeEncoder); ok && (!e.flushed || len(e.fs) > 0 || len(e.ps) > 0) {
			return fmt.Errorf("fake: writing trailer before encoder of output #%d has been drained", idx)
		}
	}
	m.trailer = true
	return nil
}

func (m *fakeMuxer) packets(output int) (ps []*fakePacket) {
	for _, p := range m.ps {
		if p.streamIndex == output {
			ps = append(ps, p)
		}
	}
	return
}

// fakeDecoder outputs one frame per packet
type fakeDecoder struct {
	closed  bool
	errSend error
	flushed bool
	fs      []*fakeFrame
	s       StreamDescriptor
	vp      VideoParameters
}

func (d *fakeDecoder) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDecoder) TimeBase() Rational { return d.s.TimeBase }
func (d *fakeDecoder) VideoParameters() VideoParameters { return d.vp }

func (d *fakeDecoder) SendPacket(p Packet) error {
	if d.flushed {
		return ErrEOF
	}
	if p == nil {
		d.flushed = true
		return nil
	}
	if d.errSend != nil {
		return d.errSend
	}
	d.fs = append(d.fs, &fakeFrame{pictureType: "I", pts: p.Pts()})
	return nil
}

func (d *fakeDecoder) ReceiveFrame() (Frame, error) {
	if len(d.fs) == 0 {
		if d.flushed {
			return nil, ErrEOF
		}
		return nil, ErrAgain
	}
	f := d.fs[0]
	d.fs = d.fs[1:]
	return f, nil
}

// fakeEncoder holds delay frames before outputting packets
type fakeEncoder struct {
	c       EncoderConfig
	closed  bool
	delay   int
	flushed bool
	fs      []*fakeFrame
	ps      []*fakePacket
}

func (e *fakeEncoder) Close() error {
	e.closed = true
	return nil
}

func (e *fakeEncoder) Config() EncoderConfig { return e.c }
func (e *fakeEncoder) TimeBase() Rational { return e.c.TimeBase }

func (e *fakeEncoder) SendFrame(f Frame) error {
	if e.flushed {
		return ErrEOF
	}
	if f == nil {
		e.flushed = true
		for _, f := range e.fs {
			e.ps = append(e.ps, e.packet(f))
		}
		e.fs = nil
		return nil
	}
	ff := f.(*fakeFrame)
	if ff.pictureType != "" {
		return errors.New("fake: picture type has not been cleared")
	}
	c := *ff
	e.fs = append(e.fs, &c)
	if len(e.fs) > e.delay {
		e.ps = append(e.ps, e.packet(e.fs[0]))
		e.fs = e.fs[1:]
	}
	return nil
}

func (e *fakeEncoder) packet(f *fakeFrame) *fakePacket {
	return newFakePacket(0, f.pts, f.pts, 1)
}

func (e *fakeEncoder) ReceivePacket() (Packet, error) {
	if len(e.ps) == 0 {
		if e.flushed {
			return nil, ErrEOF
		}
		return nil, ErrAgain
	}
	p := e.ps[0]
	e.ps = e.ps[1:]
	return p, nil
}

type fakeCodecs struct {
	decoderErr error // Returned by decoders when sending packets
	delay      int
	ds         []*fakeDecoder
	encoderErr error
	es         []*fakeEncoder
	vp         *VideoParameters
}

func (c *fakeCodecs) NewDecoder(s StreamDescriptor) (Decoder, error) {
	d := &fakeDecoder{
		errSend: c.decoderErr,
		s:       s,
		vp: VideoParameters{
			Height:            s.Parameters.Height,
			PixelFormat:       0,
			PixelFormatName:   "yuv420p",
			SampleAspectRatio: NewRational(1, 1),
			Width:             s.Parameters.Width,
		},
	}
	if c.vp != nil {
		d.vp = *c.vp
	}
	c.ds = append(c.ds, d)
	return d, nil
}

func (c *fakeCodecs) NewEncoder(cfg EncoderConfig) (Encoder, error) {
	if c.encoderErr != nil {
		return nil, c.encoderErr
	}
	e := &fakeEncoder{c: cfg, delay: c.delay}
	c.es = append(c.es, e)
	return e, nil
}

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(0, 0)} }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) add(d time.Duration) { c.t = c.t.Add(d) }

func videoStream(idx, width, height int) StreamDescriptor {
	return StreamDescriptor{
		FrameRate: NewRational(30, 1),
		Index:     idx,
		Medium:    MediumVideo,
		Parameters: CodecParameters{
			CodecName: "h264",
			CodecTag:  0x31637661,
			Height:    height,
			Width:     width,
		},
		TimeBase: NewRational(1, 90000),
	}
}

func audioStream(idx int) StreamDescriptor {
	return StreamDescriptor{
		Index:  idx,
		Medium: MediumAudio,
		Parameters: CodecParameters{
			Channels:   2,
			CodecName:  "aac",
			CodecTag:   0x6134706d,
			SampleRate: 48000,
		},
		TimeBase: NewRational(1, 48000),
	}
}

func dataStream(idx int) StreamDescriptor {
	return StreamDescriptor{
		Index:    idx,
		Medium:   MediumData,
		TimeBase: NewRational(1, 90000),
	}
}
