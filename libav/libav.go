// Package pushlibav implements the livepush ports on top of libav
package pushlibav

import (
	"errors"
	"sort"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/gioelecerati/livepush"
)

var (
	_ livepush.Codecs  = (*Codecs)(nil)
	_ livepush.Demuxer = (*Demuxer)(nil)
	_ livepush.Muxer   = (*Muxer)(nil)
)

func toRational(r livepush.Rational) astiav.Rational {
	return astiav.NewRational(r.Num, r.Den)
}

func fromRational(r astiav.Rational) livepush.Rational {
	return livepush.NewRational(r.Num(), r.Den())
}

func fromMediaType(t astiav.MediaType) livepush.Medium {
	switch t {
	case astiav.MediaTypeAttachment:
		return livepush.MediumAttachment
	case astiav.MediaTypeAudio:
		return livepush.MediumAudio
	case astiav.MediaTypeData:
		return livepush.MediumData
	case astiav.MediaTypeSubtitle:
		return livepush.MediumSubtitle
	case astiav.MediaTypeVideo:
		return livepush.MediumVideo
	default:
		return livepush.MediumUnknown
	}
}

// codecError maps libav flow control errors to their livepush counterpart
func codecError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, astiav.ErrEagain):
		return livepush.ErrAgain
	case errors.Is(err, astiav.ErrEof):
		return livepush.ErrEOF
	default:
		return err
	}
}

func durationFromTimestamp(ts int64, tb livepush.Rational) time.Duration {
	if ts == livepush.NoTimestamp || ts <= 0 || !tb.Valid() {
		return 0
	}
	return time.Duration(livepush.Rescale(ts, tb, livepush.NewRational(1, int(time.Second))))
}

func sortedKeys(m map[string]string) (ks []string) {
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return
}
