package livepush

import (
	"fmt"
	"sort"
	"strings"
)

// Route represents what happens to the packets of an input stream.
// It's either Drop, Copy or Transcode.
type Route interface {
	fmt.Stringer
	isRoute()
}

// Drop drops every packet of the stream
type Drop struct{}

// Copy forwards packets unchanged aside from their timestamps
type Copy struct {
	Output int
}

// Transcode feeds packets to a transcoder. Transcoder is nil until the pipeline is set up.
type Transcode struct {
	Output     int
	Transcoder *Transcoder
}

func (Drop) isRoute()      {}
func (Copy) isRoute()      {}
func (Transcode) isRoute() {}

func (Drop) String() string        { return "drop" }
func (r Copy) String() string      { return fmt.Sprintf("copy to #%d", r.Output) }
func (r Transcode) String() string { return fmt.Sprintf("transcode to #%d", r.Output) }

// RouteOutput returns the output index of a route, ok is false for Drop
func RouteOutput(r Route) (output int, ok bool) {
	switch v := r.(type) {
	case Copy:
		return v.Output, true
	case Transcode:
		return v.Output, true
	}
	return -1, false
}

// TranscodePolicy decides which video streams are transcoded
type TranscodePolicy string

// Transcode policies
const (
	// Only the best video stream is transcoded, other video streams are copied
	TranscodeBest TranscodePolicy = "best"
	// Every video stream gets its own transcoder
	TranscodeAllVideo TranscodePolicy = "all"
	// Nothing is transcoded
	TranscodeNone TranscodePolicy = "none"
)

// ParseTranscodePolicy parses a policy, the empty string being TranscodeBest
func ParseTranscodePolicy(s string) (TranscodePolicy, error) {
	switch p := TranscodePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return TranscodeBest, nil
	case TranscodeBest, TranscodeAllVideo, TranscodeNone:
		return p, nil
	default:
		return "", fmt.Errorf("livepush: unknown transcode policy %q", s)
	}
}

// Routes represents routes indexed by input stream index
type Routes map[int]Route

// BuildRoutes decides a route for every input stream.
// Outputs are assigned in input order and skip dropped streams.
func BuildRoutes(ss []StreamDescriptor, p TranscodePolicy) (rs Routes) {
	// Get best video stream
	best, hasBest := BestVideoStream(ss)

	// Loop through streams
	rs = make(Routes, len(ss))
	var output int
	for _, s := range ss {
		// Unsupported medium
		if !s.Medium.Routable() {
			rs[s.Index] = Drop{}
			continue
		}

		// Transcode or copy
		var transcode bool
		if s.Medium == MediumVideo {
			switch p {
			case TranscodeAllVideo:
				transcode = true
			case TranscodeNone:
			default:
				transcode = hasBest && s.Index == best
			}
		}
		if transcode {
			rs[s.Index] = Transcode{Output: output}
		} else {
			rs[s.Index] = Copy{Output: output}
		}
		output++
	}
	return
}

// Validate checks that every input stream has exactly one route and that outputs
// are contiguous from 0 in input order
func (rs Routes) Validate(ss []StreamDescriptor) error {
	// Check count
	if len(rs) != len(ss) {
		return fmt.Errorf("livepush: %d routes for %d streams", len(rs), len(ss))
	}

	// Loop through streams
	next := 0
	for _, s := range ss {
		// Get route
		r, ok := rs[s.Index]
		if !ok || r == nil {
			return fmt.Errorf("livepush: no route for stream #%d", s.Index)
		}

		// Check output
		if o, ok := RouteOutput(r); ok {
			if o != next {
				return fmt.Errorf("livepush: stream #%d routed to output #%d, expected #%d", s.Index, o, next)
			}
			next++
		}
	}
	return nil
}

// Outputs returns the number of output streams
func (rs Routes) Outputs() (n int) {
	for _, r := range rs {
		if _, ok := RouteOutput(r); ok {
			n++
		}
	}
	return
}

func (rs Routes) String() string {
	var idxs []int
	for idx := range rs {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	var ss []string
	for _, idx := range idxs {
		ss = append(ss, fmt.Sprintf("#%d: %s", idx, rs[idx]))
	}
	return strings.Join(ss, ", ")
}
