package livepush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// State represents a pipeline state
type State int

// Pipeline states
const (
	StateInit State = iota
	StateHeaderWritten
	StateDraining
	StateFlushing
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateHeaderWritten:
		return "header_written"
	case StateDraining:
		return "draining"
	case StateFlushing:
		return "flushing"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PipelineOptions represents pipeline options
type PipelineOptions struct {
	Codecs       Codecs
	Demuxer      Demuxer
	EventHandler *EventHandler
	Muxer        Muxer
	// Used for progress reporting, defaults to time.Now
	Now      func() time.Time
	Policy   TranscodePolicy
	Settings EncoderSettings
}

// Pipeline drives demux, transcode or copy, and mux in a single goroutine.
// It's not safe for concurrent use.
type Pipeline struct {
	c               Codecs
	d               Demuxer
	eh              *EventHandler
	m               Muxer
	now             func() time.Time
	outputTimeBases map[int]Rational
	policy          TranscodePolicy
	routes          Routes
	settings        EncoderSettings
	state           State
	streams         map[int]StreamDescriptor
	transcoders     []*Transcoder
}

// NewPipeline creates a new pipeline
func NewPipeline(o PipelineOptions) *Pipeline {
	p := &Pipeline{
		c:               o.Codecs,
		d:               o.Demuxer,
		eh:              o.EventHandler,
		m:               o.Muxer,
		now:             o.Now,
		outputTimeBases: make(map[int]Rational),
		policy:          o.Policy,
		settings:        o.Settings,
		state:           StateInit,
		streams:         make(map[int]StreamDescriptor),
	}
	if p.policy == "" {
		p.policy = TranscodeBest
	}
	return p
}

// Name implements the Namer interface
func (p *Pipeline) Name() string {
	return "pipeline"
}

// State returns the current state
func (p *Pipeline) State() State {
	return p.state
}

// Routes returns the routes, they're only available once the pipeline has been set up
func (p *Pipeline) Routes() Routes {
	return p.routes
}

// Transcoders returns the transcoders
func (p *Pipeline) Transcoders() []*Transcoder {
	return p.transcoders
}

// OutputTimeBase returns the resolved time base of an output stream
func (p *Pipeline) OutputTimeBase(output int) (tb Rational, ok bool) {
	tb, ok = p.outputTimeBases[output]
	return
}

func (p *Pipeline) setState(s State) {
	from := p.state
	p.state = s
	p.eh.Emit(Event{
		Name:    EventNamePipelineState,
		Payload: EventPipelineState{From: from, To: s},
		Target:  p,
	})
}

// Run runs the pipeline to completion. It can only be called once.
// Any error is fatal and leaves the output incomplete, discarding it is up to the caller.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	// Check state
	if p.state != StateInit {
		return fmt.Errorf("livepush: running pipeline in state %s: %w", p.state, ErrInvalidState)
	}

	// Make sure transcoders are closed and failures are reported
	defer func() {
		for _, t := range p.transcoders {
			if errC := t.Close(); errC != nil {
				p.eh.Emit(EventError(t, errC))
			}
		}
		if err != nil {
			p.eh.Emit(EventError(p, err))
			p.setState(StateFailed)
		}
	}()

	// Setup
	if err = p.setup(); err != nil {
		return
	}

	// Write header
	if err = p.writeHeader(); err != nil {
		return
	}

	// Drain input
	if err = p.drain(ctx); err != nil {
		return
	}

	// Flush transcoders
	if err = p.flush(); err != nil {
		return
	}

	// Write trailer
	if err = p.m.WriteTrailer(); err != nil {
		err = &MuxError{Err: fmt.Errorf("livepush: writing trailer failed: %w", err), Stage: StageTrailer, Stream: -1}
		return
	}
	p.setState(StateFinalized)
	return
}

func (p *Pipeline) setup() (err error) {
	// Index streams
	ss := p.d.Streams()
	for _, s := range ss {
		p.streams[s.Index] = s
	}

	// Build routes
	p.routes = BuildRoutes(ss, p.policy)
	if err = p.routes.Validate(ss); err != nil {
		err = &MuxError{Err: err, Stage: StageSetup, Stream: -1}
		return
	}

	// Check time bases of routed streams
	for _, s := range ss {
		if _, ok := RouteOutput(p.routes[s.Index]); ok && !s.TimeBase.Valid() {
			err = &MuxError{Err: fmt.Errorf("livepush: invalid time base %s", s.TimeBase), Stage: StageSetup, Stream: s.Index}
			return
		}
	}

	// Copy metadata
	if err = p.m.SetMetadata(p.d.Metadata()); err != nil {
		err = &MuxError{Err: fmt.Errorf("livepush: setting metadata failed: %w", err), Stage: StageSetup, Stream: -1}
		return
	}

	// Register output streams in input order
	for _, s := range ss {
		switch r := p.routes[s.Index].(type) {
		case Copy:
			// Add stream
			var o int
			if o, err = p.m.AddStream(CopyParameters(s.Parameters)); err != nil {
				err = &MuxError{Err: fmt.Errorf("livepush: adding copy stream failed: %w", err), Stage: StageSetup, Stream: s.Index}
				return
			}

			// Check output
			if o != r.Output {
				err = &MuxError{Err: fmt.Errorf("livepush: muxer assigned output #%d instead of #%d", o, r.Output), Stage: StageSetup, Stream: s.Index}
				return
			}
		case Transcode:
			// Create transcoder
			var t *Transcoder
			if t, err = NewTranscoder(TranscoderOptions{
				Codecs:       p.c,
				EventHandler: p.eh,
				Muxer:        p.m,
				Now:          p.now,
				Settings:     p.settings,
				Stream:       s,
			}); err != nil {
				return
			}
			p.transcoders = append(p.transcoders, t)

			// Check output
			if t.Output() != r.Output {
				err = &MuxError{Err: fmt.Errorf("livepush: muxer assigned output #%d instead of #%d", t.Output(), r.Output), Stage: StageSetup, Stream: s.Index}
				return
			}

			// Bind transcoder
			r.Transcoder = t
			p.routes[s.Index] = r
		}

		// Emit
		p.eh.Emit(Event{
			Name:    EventNameStreamRouted,
			Payload: EventStreamRouted{Route: p.routes[s.Index], Stream: s},
			Target:  p,
		})
	}
	return
}

func (p *Pipeline) writeHeader() (err error) {
	// Write header
	if err = p.m.WriteHeader(); err != nil {
		err = &MuxError{Err: fmt.Errorf("livepush: writing header failed: %w", err), Stage: StageHeader, Stream: -1}
		return
	}

	// Read back output time bases since the muxer may have changed them
	for idx, r := range p.routes {
		o, ok := RouteOutput(r)
		if !ok {
			continue
		}
		var tb Rational
		if tb, err = p.m.TimeBase(o); err != nil {
			err = &MuxError{Err: fmt.Errorf("livepush: getting output time base failed: %w", err), Stage: StageHeader, Stream: idx}
			return
		}
		p.outputTimeBases[o] = tb
	}

	// Resolve transcoders
	for _, t := range p.transcoders {
		if err = t.resolve(); err != nil {
			return
		}
	}
	p.setState(StateHeaderWritten)
	return
}

func (p *Pipeline) drain(ctx context.Context) (err error) {
	p.setState(StateDraining)
	for {
		// Check context
		if err = ctx.Err(); err != nil {
			return
		}

		// Read packet
		var pkt Packet
		if pkt, err = p.d.ReadPacket(); err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
				return
			}
			err = &DemuxError{Err: err}
			return
		}

		// Dispatch
		if err = p.dispatch(pkt); err != nil {
			return
		}
	}
}

func (p *Pipeline) dispatch(pkt Packet) (err error) {
	// Get route
	r, ok := p.routes[pkt.StreamIndex()]
	if !ok {
		// Streams appearing after the header has been written can't be muxed
		return
	}

	// Switch on route
	switch r := r.(type) {
	case Copy:
		// Update packet
		RescalePacket(pkt, p.streams[pkt.StreamIndex()].TimeBase, p.outputTimeBases[r.Output])
		pkt.SetPos(-1)
		idx := pkt.StreamIndex()
		pkt.SetStreamIndex(r.Output)

		// Write
		if err = p.m.WritePacket(pkt); err != nil {
			err = &MuxError{Err: fmt.Errorf("livepush: writing packet failed: %w", err), Stage: StageWrite, Stream: idx}
			return
		}
	case Transcode:
		if err = r.Transcoder.Feed(pkt); err != nil {
			return
		}
	}
	return
}

func (p *Pipeline) flush() (err error) {
	p.setState(StateFlushing)
	for _, t := range p.transcoders {
		if err = t.Flush(); err != nil {
			return
		}
	}
	return
}
