package pushlibav

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/gioelecerati/livepush"
)

// DemuxerOptions represents demuxer options
type DemuxerOptions struct {
	// String content of the demuxer as you would use in ffmpeg
	Dictionary *Dictionary
	// URL of the input
	URL string
}

// Demuxer represents an object capable of demuxing packets out of an input
type Demuxer struct {
	c         *astikit.Closer
	ctxFormat *astiav.FormatContext
	md        map[string]string
	p         *packet
	ss        []livepush.StreamDescriptor
}

// NewDemuxer opens the input and probes its streams.
// It returns a *livepush.OpenError if the input can't be read or has no usable stream.
func NewDemuxer(o DemuxerOptions) (d *Demuxer, err error) {
	// Create demuxer
	d = &Demuxer{c: astikit.NewCloser()}

	// Make sure resources are freed on error
	defer func() {
		if err != nil {
			d.Close()
			d = nil
			err = &livepush.OpenError{Err: err, URL: o.URL}
		}
	}()

	// Dictionary
	var dict *astiav.Dictionary
	if o.Dictionary != nil {
		// Parse dictionary
		if dict, err = o.Dictionary.parse(); err != nil {
			err = fmt.Errorf("pushlibav: parsing dictionary failed: %w", err)
			return
		}

		// Make sure the dictionary is freed
		defer dict.Free()
	}

	// Alloc format context
	if d.ctxFormat = astiav.AllocFormatContext(); d.ctxFormat == nil {
		err = errors.New("pushlibav: allocating format context failed")
		return
	}

	// Open input
	// libav frees the format context on failure
	if err = d.ctxFormat.OpenInput(o.URL, nil, dict); err != nil {
		err = fmt.Errorf("pushlibav: opening input failed: %w", err)
		return
	}

	// Make sure the input is closed
	d.c.Add(d.ctxFormat.CloseInput)

	// Find stream info
	if err = d.ctxFormat.FindStreamInfo(nil); err != nil {
		err = fmt.Errorf("pushlibav: finding stream info failed: %w", err)
		return
	}

	// Index streams
	var routable bool
	for _, s := range d.ctxFormat.Streams() {
		sd := newStreamDescriptor(s)
		if sd.Medium.Routable() {
			routable = true
		}
		d.ss = append(d.ss, sd)
	}

	// No usable stream
	if !routable {
		err = errors.New("pushlibav: no audio, video or subtitle stream found")
		return
	}

	// Get metadata
	d.md = dictionaryToMap(d.ctxFormat.Metadata())

	// Alloc packet
	d.p = newPacket()
	d.c.Add(d.p.Free)
	return
}

// Close closes the demuxer
func (d *Demuxer) Close() error {
	return d.c.Close()
}

// Metadata implements the livepush.Demuxer interface
func (d *Demuxer) Metadata() map[string]string {
	return d.md
}

// Streams implements the livepush.Demuxer interface
func (d *Demuxer) Streams() []livepush.StreamDescriptor {
	return d.ss
}

// ReadPacket implements the livepush.Demuxer interface
func (d *Demuxer) ReadPacket() (livepush.Packet, error) {
	// Packet is reused
	d.p.Unref()

	// Read frame
	if err := d.ctxFormat.ReadFrame(d.p.Packet); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("pushlibav: reading frame failed: %w", err)
	}
	return d.p, nil
}
