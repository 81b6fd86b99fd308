package livepush

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astiws"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// ServerOptions represents server options
type ServerOptions struct {
	Logger astikit.StdLogger
	// Defaults to NewHostStats
	HostStats func() HostStats
}

// Server exposes the status of a push over http and forwards its events to websocket clients
type Server struct {
	cs map[*astiws.Client]bool
	hs func() HostStats
	l  astikit.CompleteLogger
	m  *sync.Mutex // Locks st
	mc *sync.Mutex // Locks cs
	st ServerStatus
	ws *astiws.Manager
}

// NewServer creates a new server
func NewServer(o ServerOptions) (s *Server) {
	s = &Server{
		cs: make(map[*astiws.Client]bool),
		hs: o.HostStats,
		l:  astikit.AdaptStdLogger(o.Logger),
		m:  &sync.Mutex{},
		mc: &sync.Mutex{},
		st: ServerStatus{
			Progress: []ServerProgress{},
			State:    StateInit.String(),
			Streams:  []ServerStream{},
		},
		ws: astiws.NewManager(astiws.ManagerConfiguration{MaxMessageSize: 8192}, o.Logger),
	}
	if s.hs == nil {
		s.hs = NewHostStats
	}
	return
}

// Handler returns the http handler
func (s *Server) Handler() http.Handler {
	// Create router
	r := httprouter.New()

	// Add routes
	r.Handler(http.MethodGet, "/ok", s.serveOK())
	r.Handler(http.MethodGet, "/status", s.serveStatus())
	r.Handler(http.MethodGet, "/websocket", s.serveWebSocket())
	return r
}

func (s *Server) serveOK() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {})
}

// ServerStatus represents the status of a push
type ServerStatus struct {
	Error    string           `json:"error,omitempty"`
	Exec     *ServerExec      `json:"exec,omitempty"`
	Host     *HostStats       `json:"host,omitempty"`
	Progress []ServerProgress `json:"progress"`
	State    string           `json:"state"`
	Streams  []ServerStream   `json:"streams"`
}

// ServerExec represents an external process
type ServerExec struct {
	Args     []string `json:"args"`
	Duration float64  `json:"duration,omitempty"`
	Status   string   `json:"status,omitempty"`
	Tag      string   `json:"tag"`
}

func newServerExec(e EventExec) ServerExec {
	return ServerExec{
		Args:     e.Args,
		Duration: e.Duration.Seconds(),
		Status:   e.Status,
		Tag:      e.Tag,
	}
}

// ServerProgress represents the progress of a transcoder
type ServerProgress struct {
	Elapsed         float64 `json:"elapsed"`
	FPS             float64 `json:"fps"`
	FramesDecoded   uint64  `json:"frames_decoded"`
	PacketsEncoded  uint64  `json:"packets_encoded"`
	PacketsReceived uint64  `json:"packets_received"`
	Stream          int     `json:"stream"`
}

func newServerProgress(p Progress) ServerProgress {
	return ServerProgress{
		Elapsed:         p.Elapsed.Seconds(),
		FPS:             p.FPS(),
		FramesDecoded:   p.FramesDecoded,
		PacketsEncoded:  p.PacketsEncoded,
		PacketsReceived: p.PacketsReceived,
		Stream:          p.Stream,
	}
}

// ServerStream represents a routed input stream
type ServerStream struct {
	Codec  string `json:"codec"`
	Index  int    `json:"index"`
	Medium string `json:"medium"`
	Output *int   `json:"output,omitempty"`
	Route  string `json:"route"`
}

func newServerStream(e EventStreamRouted) (s ServerStream) {
	s = ServerStream{
		Codec:  e.Stream.Parameters.CodecName,
		Index:  e.Stream.Index,
		Medium: e.Stream.Medium.String(),
	}
	switch e.Route.(type) {
	case Copy:
		s.Route = "copy"
	case Transcode:
		s.Route = "transcode"
	default:
		s.Route = "drop"
	}
	if o, ok := RouteOutput(e.Route); ok {
		s.Output = &o
	}
	return
}

// ServerPipelineState represents a pipeline state change
type ServerPipelineState struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Status returns a snapshot of the status
func (s *Server) Status() ServerStatus {
	s.m.Lock()
	defer s.m.Unlock()
	st := s.st
	st.Progress = append([]ServerProgress{}, s.st.Progress...)
	st.Streams = append([]ServerStream{}, s.st.Streams...)
	return st
}

func (s *Server) serveStatus() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		// Create body
		b := s.Status()
		hs := s.hs()
		b.Host = &hs

		// Write
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(b); err != nil {
			s.l.Error(fmt.Errorf("livepush: writing failed: %w", err))
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
	})
}

func (s *Server) serveWebSocket() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := s.ws.ServeHTTP(rw, r, s.adaptWebSocketClient); err != nil {
			var e *websocket.CloseError
			if ok := errors.As(err, &e); !ok ||
				(e.Code != websocket.CloseNoStatusReceived && e.Code != websocket.CloseNormalClosure) {
				s.l.Error(fmt.Errorf("livepush: handling websocket failed: %w", err))
			}
			return
		}
	})
}

func (s *Server) adaptWebSocketClient(c *astiws.Client) (err error) {
	// Register client
	s.mc.Lock()
	s.cs[c] = true
	s.mc.Unlock()

	// Add listeners
	c.AddListener(astiws.EventNameDisconnect, s.webSocketDisconnected)
	c.AddListener("ping", s.webSocketPing)
	return
}

func (s *Server) webSocketDisconnected(c *astiws.Client, eventName string, payload json.RawMessage) error {
	s.mc.Lock()
	delete(s.cs, c)
	s.mc.Unlock()
	return nil
}

func (s *Server) webSocketPing(c *astiws.Client, eventName string, payload json.RawMessage) error {
	if err := c.ExtendConnection(); err != nil {
		s.l.Error(fmt.Errorf("livepush: extending ws connection failed: %w", err))
	}
	return nil
}

func (s *Server) webSocketClients() (cs []*astiws.Client) {
	s.mc.Lock()
	defer s.mc.Unlock()
	for c := range s.cs {
		cs = append(cs, c)
	}
	return
}

func (s *Server) sendWebSocket(eventName EventName, payload interface{}) {
	// Loop through clients
	for _, c := range s.webSocketClients() {
		if err := c.Write(string(eventName), payload); err != nil {
			s.l.Error(fmt.Errorf("livepush: writing event %s to websocket client %p failed: %w", eventName, c, err))
			continue
		}
	}
}

// EventHandlerAdapter updates the status and forwards events to websocket clients
func (s *Server) EventHandlerAdapter(eh *EventHandler) {
	// Register catch all handler
	eh.AddForAll(func(e Event) bool {
		// Get payload
		p := s.handleEvent(e)

		// Send
		s.sendWebSocket(e.Name, p)
		return false
	})
}

func (s *Server) handleEvent(e Event) (p interface{}) {
	// Lock
	s.m.Lock()
	defer s.m.Unlock()

	// Switch on event name
	switch e.Name {
	case EventNameError:
		if err, ok := e.Payload.(error); ok {
			s.st.Error = err.Error()
			p = s.st.Error
		}
	case EventNameExecStarted, EventNameExecStopped:
		if v, ok := e.Payload.(EventExec); ok {
			se := newServerExec(v)
			s.st.Exec = &se
			p = se
		}
	case EventNamePipelineState:
		if v, ok := e.Payload.(EventPipelineState); ok {
			s.st.State = v.To.String()
			p = ServerPipelineState{From: v.From.String(), To: v.To.String()}
		}
	case EventNameStreamRouted:
		if v, ok := e.Payload.(EventStreamRouted); ok {
			ss := newServerStream(v)
			s.st.Streams = append(s.st.Streams, ss)
			sort.Slice(s.st.Streams, func(i, j int) bool { return s.st.Streams[i].Index < s.st.Streams[j].Index })
			p = ss
		}
	case EventNameTranscoderProgress:
		if v, ok := e.Payload.(Progress); ok {
			sp := newServerProgress(v)
			s.setProgress(sp)
			p = sp
		}
	default:
		p = e.Payload
	}
	return
}

// setProgress assumes the lock is held
func (s *Server) setProgress(p ServerProgress) {
	for idx := range s.st.Progress {
		if s.st.Progress[idx].Stream == p.Stream {
			s.st.Progress[idx] = p
			return
		}
	}
	s.st.Progress = append(s.st.Progress, p)
	sort.Slice(s.st.Progress, func(i, j int) bool { return s.st.Progress[i].Stream < s.st.Progress[j].Stream })
}
