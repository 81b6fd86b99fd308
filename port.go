package livepush

// Packet represents a unit of encoded data
type Packet interface {
	Dts() int64
	Duration() int64
	Pts() int64
	SetDts(int64)
	SetDuration(int64)
	SetPos(int64)
	SetPts(int64)
	SetStreamIndex(int)
	StreamIndex() int
}

// Frame represents a unit of decoded picture data
type Frame interface {
	// ClearPictureType removes the picture type hint so that the encoder picks the frame type
	ClearPictureType()
	Pts() int64
	SetPts(int64)
}

// Demuxer represents an object capable of reading packets out of an input container
type Demuxer interface {
	Metadata() map[string]string
	// ReadPacket returns io.EOF once the input is exhausted. The packet is only valid
	// until the next call.
	ReadPacket() (Packet, error)
	Streams() []StreamDescriptor
}

// Muxer represents an object capable of writing packets into an output container
type Muxer interface {
	// AddEncoderStream registers an output stream built from an opened encoder
	AddEncoderStream(e Encoder) (index int, err error)
	// AddStream registers an output stream built verbatim from p
	AddStream(p CodecParameters) (index int, err error)
	// GlobalHeader returns whether the output format wants stream level codec headers
	GlobalHeader() bool
	SetMetadata(m map[string]string) error
	// TimeBase returns the time base of an output stream. It's only final once the header
	// has been written.
	TimeBase(index int) (Rational, error)
	WriteHeader() error
	WritePacket(p Packet) error
	WriteTrailer() error
}

// VideoParameters represents what a decoder reports about the pictures it outputs
type VideoParameters struct {
	FrameRate         Rational
	Height            int
	PixelFormat       int
	PixelFormatName   string
	SampleAspectRatio Rational
	Width             int
}

// Decoder represents an opened decoder.
// SendPacket(nil) signals end of stream. ReceiveFrame returns ErrAgain when it needs
// more input and ErrEOF once fully drained. The frame is only valid until the next call.
type Decoder interface {
	Close() error
	ReceiveFrame() (Frame, error)
	SendPacket(p Packet) error
	TimeBase() Rational
	VideoParameters() VideoParameters
}

// Encoder represents an opened encoder.
// SendFrame(nil) signals end of stream. ReceivePacket returns ErrAgain when it needs
// more input and ErrEOF once fully drained. The packet is only valid until the next call.
type Encoder interface {
	Close() error
	Config() EncoderConfig
	ReceivePacket() (Packet, error)
	SendFrame(f Frame) error
	TimeBase() Rational
}

// Codecs represents an object capable of instantiating decoders and encoders
type Codecs interface {
	NewDecoder(s StreamDescriptor) (Decoder, error)
	NewEncoder(c EncoderConfig) (Encoder, error)
}
