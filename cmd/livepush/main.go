package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gioelecerati/livepush"
	pushlibav "github.com/gioelecerati/livepush/libav"
	"golang.org/x/sync/errgroup"
)

// Flags
var (
	codec       = flag.String("codec", "", "the video encoder name")
	configPath  = flag.String("c", "", "the configuration path (.toml, .yaml or .yml)")
	environment = flag.String("env", "", "the ingest environment (dev, stg or prod)")
	execMode    = flag.Bool("exec", false, "if true, the external tool copies the input instead of the in process pipeline")
	format      = flag.String("f", "", "the output format")
	input       = flag.String("i", "", "the input path")
	options     = flag.String("options", "", "the video encoder options, e.g. preset=veryfast,tune=zerolatency")
	output      = flag.String("o", "", "the output url, overrides the ingest target")
	policy      = flag.String("policy", "", "the transcode policy (best, all or none)")
	region      = flag.String("region", "", "the ingest region, none disables region routing")
	serverAddr  = flag.String("server", "", "the status server address")
	streamKey   = flag.String("k", "", "the stream key")
)

func main() {
	// Parse flags
	flag.Parse()

	// Create logger
	l := log.New(log.Writer(), log.Prefix(), log.Flags())

	// Run
	if err := run(l); err != nil {
		l.Fatal(fmt.Errorf("main: running failed: %w", err))
	}
}

func run(l *log.Logger) (err error) {
	// Create configuration
	var c livepush.Configuration
	if c, err = newConfiguration(); err != nil {
		return fmt.Errorf("main: creating configuration failed: %w", err)
	}

	// Handle signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create event handler
	eh := livepush.NewEventHandler()

	// Get log adapters
	lvl, err := pushlibav.ParseLogLevel(c.Log.LibavLevel)
	if err != nil {
		return fmt.Errorf("main: parsing libav log level failed: %w", err)
	}
	as := []livepush.EventHandlerLogAdapter{pushlibav.WithLog(lvl)}
	if c.Log.MessageMergingPeriod > 0 {
		as = append(as, livepush.WithMessageMerging(c.Log.MessageMergingPeriod))
	}

	// Log event handler
	defer eh.Log(livepush.EventHandlerLogOptions{
		Adapters: as,
		Logger:   l,
	}).Start(ctx).Close()

	// Create error group
	g, gctx := errgroup.WithContext(ctx)

	// Create status server
	var hs *http.Server
	if c.Server.Addr != "" {
		// Create server
		s := livepush.NewServer(livepush.ServerOptions{Logger: l})
		s.EventHandlerAdapter(eh)
		hs = &http.Server{
			Addr:    c.Server.Addr,
			Handler: s.Handler(),
		}

		// Serve
		g.Go(func() error {
			l.Printf("main: serving status on %s", c.Server.Addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("main: serving status failed: %w", err)
			}
			return nil
		})
	}

	// Push
	g.Go(func() error {
		// Make sure the server is shut down once the push is done
		if hs != nil {
			defer hs.Shutdown(context.Background())
		}
		return push(gctx, c, eh)
	})

	// Wait
	return g.Wait()
}

func newConfiguration() (c livepush.Configuration, err error) {
	// Load file
	if c, err = livepush.LoadConfiguration(*configPath); err != nil {
		return
	}

	// Flags override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "codec":
			c.Encoder.Codec = *codec
		case "env":
			c.Ingest.Environment = *environment
		case "exec":
			c.Exec.Enabled = *execMode
		case "f":
			c.Output.Format = *format
		case "i":
			c.Input.Path = *input
		case "k":
			c.Ingest.StreamKey = *streamKey
		case "o":
			c.Output.URL = *output
		case "options":
			c.Encoder.Options = *options
		case "policy":
			c.Encoder.Policy = *policy
		case "region":
			c.Ingest.Region = *region
		case "server":
			c.Server.Addr = *serverAddr
		}
	})

	// Validate
	err = c.Validate()
	return
}

func push(ctx context.Context, c livepush.Configuration, eh *livepush.EventHandler) (err error) {
	// External process
	if c.Exec.Enabled {
		return pushExec(ctx, c, eh)
	}

	// Create demuxer
	var d *pushlibav.Demuxer
	if d, err = pushlibav.NewDemuxer(pushlibav.DemuxerOptions{
		Dictionary: pushlibav.NewMapDictionary(c.Input.Options),
		URL:        c.Input.Path,
	}); err != nil {
		return fmt.Errorf("main: creating demuxer failed: %w", err)
	}
	defer d.Close()

	// Get output url
	var u string
	if u, err = c.OutputURL(); err != nil {
		return fmt.Errorf("main: getting output url failed: %w", err)
	}

	// Create muxer
	var m *pushlibav.Muxer
	if m, err = pushlibav.NewMuxer(pushlibav.MuxerOptions{
		FormatName: c.Output.Format,
		URL:        u,
	}); err != nil {
		return fmt.Errorf("main: creating muxer failed: %w", err)
	}
	defer m.Close()

	// Get encoder settings
	var s livepush.EncoderSettings
	if s, err = c.EncoderSettings(); err != nil {
		return fmt.Errorf("main: getting encoder settings failed: %w", err)
	}

	// Get policy
	var p livepush.TranscodePolicy
	if p, err = livepush.ParseTranscodePolicy(c.Encoder.Policy); err != nil {
		return fmt.Errorf("main: parsing transcode policy failed: %w", err)
	}

	// Run pipeline
	if err = livepush.NewPipeline(livepush.PipelineOptions{
		Codecs:       pushlibav.NewCodecs(),
		Demuxer:      d,
		EventHandler: eh,
		Muxer:        m,
		Policy:       p,
		Settings:     s,
	}).Run(ctx); err != nil {
		return fmt.Errorf("main: running pipeline failed: %w", err)
	}
	return
}

func pushExec(ctx context.Context, c livepush.Configuration, eh *livepush.EventHandler) (err error) {
	// Get target
	var t livepush.IngestTarget
	if t, err = c.Target(); err != nil {
		return fmt.Errorf("main: getting ingest target failed: %w", err)
	}

	// Push
	if err = livepush.NewExecPusher(livepush.ExecPusherOptions{
		Binary:       c.Exec.Binary,
		EventHandler: eh,
		Stderr:       os.Stderr,
		Stdout:       os.Stdout,
	}).Push(ctx, c.Input.Path, t, livepush.ExecOptions{
		Format:   c.Output.Format,
		Realtime: c.Exec.Realtime,
		Tag:      c.Exec.Tag,
	}); err != nil {
		return fmt.Errorf("main: pushing with %s failed: %w", c.Exec.Binary, err)
	}
	return
}
