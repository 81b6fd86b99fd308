package livepush

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	err := errors.New("test")
	for _, v := range []struct {
		e   error
		msg string
	}{
		{e: &OpenError{Err: err, URL: "input.mp4"}, msg: "livepush: opening input.mp4 failed: test"},
		{e: &CodecInitError{Err: err, Stage: StageEncode, Stream: 1}},
		{e: &CodecError{Err: err, Stage: StageDecode, Stream: 0}, msg: "livepush: decode failed for stream #0: test"},
		{e: &DemuxError{Err: err}},
		{e: &MuxError{Err: err, Stage: StageWrite, Stream: 2}},
		{e: &MuxError{Err: err, Stage: StageTrailer, Stream: -1}},
		{e: &ExternalProcessError{Err: err, Status: "exit status 1"}, msg: "livepush: external process failed with status exit status 1: test"},
	} {
		require.ErrorIs(t, v.e, err)
		require.Contains(t, v.e.Error(), "test")
		if v.msg != "" {
			require.Equal(t, v.msg, v.e.Error())
		}
	}
	require.ErrorIs(t, &DemuxError{Err: io.ErrUnexpectedEOF}, io.ErrUnexpectedEOF)

	// Status is not repeated
	require.Equal(t, "livepush: external process failed with status exit status 1", (&ExternalProcessError{Err: errors.New("exit status 1"), Status: "exit status 1"}).Error())
	require.Equal(t, "livepush: external process failed with status signal: killed", (&ExternalProcessError{Status: "signal: killed"}).Error())
}
