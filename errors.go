package livepush

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrAgain is returned by decoders and encoders when they need more input
	ErrAgain = errors.New("livepush: resource temporarily unavailable")
	// ErrEOF is returned by decoders and encoders once they're fully drained
	ErrEOF = errors.New("livepush: end of stream")
	// ErrInvalidState is returned when an operation is not allowed in the current state
	ErrInvalidState = errors.New("livepush: invalid state")
	// ErrUnknownOption is returned when an encoder option key is not recognized
	ErrUnknownOption = errors.New("livepush: unknown option")
)

// Stage names used in error contexts
const (
	StageDecode  = "decode"
	StageEncode  = "encode"
	StageHeader  = "header"
	StageRead    = "read"
	StageSetup   = "setup"
	StageTrailer = "trailer"
	StageWrite   = "write"
)

// OpenError is returned when the input container can't be opened or recognized
type OpenError struct {
	Err error
	URL string
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("livepush: opening %s failed: %s", e.URL, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// CodecInitError is returned when a decoder or an encoder can't be instantiated for a stream
type CodecInitError struct {
	Err    error
	Stage  string
	Stream int
}

func (e *CodecInitError) Error() string {
	return fmt.Sprintf("livepush: initializing %s codec for stream #%d failed: %s", e.Stage, e.Stream, e.Err)
}

func (e *CodecInitError) Unwrap() error { return e.Err }

// DemuxError is returned when reading packets out of the input fails mid-run
type DemuxError struct {
	Err error
}

func (e *DemuxError) Error() string {
	return fmt.Sprintf("livepush: demuxing failed: %s", e.Err)
}

func (e *DemuxError) Unwrap() error { return e.Err }

// CodecError is returned when a decoder or an encoder fails mid-run
type CodecError struct {
	Err    error
	Stage  string
	Stream int
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("livepush: %s failed for stream #%d: %s", e.Stage, e.Stream, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// MuxError is returned when setting up or writing to the output fails.
// Stream is the input stream index or -1 when not bound to a stream.
type MuxError struct {
	Err    error
	Stage  string
	Stream int
}

func (e *MuxError) Error() string {
	if e.Stream < 0 {
		return fmt.Sprintf("livepush: %s failed: %s", e.Stage, e.Err)
	}
	return fmt.Sprintf("livepush: %s failed for stream #%d: %s", e.Stage, e.Stream, e.Err)
}

func (e *MuxError) Unwrap() error { return e.Err }

// ExternalProcessError is returned when the external transcoding tool exits with a non zero status
type ExternalProcessError struct {
	Err    error
	Status string
}

func (e *ExternalProcessError) Error() string {
	if e.Err == nil || e.Err.Error() == e.Status {
		return "livepush: external process failed with status " + e.Status
	}
	return fmt.Sprintf("livepush: external process failed with status %s: %s", e.Status, e.Err)
}

func (e *ExternalProcessError) Unwrap() error { return e.Err }
