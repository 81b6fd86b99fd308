package livepush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/google/uuid"
)

// DefaultExecBinary is the external transcoding tool
const DefaultExecBinary = "ffmpeg"

// ExecPusherOptions represents exec pusher options
type ExecPusherOptions struct {
	// Defaults to DefaultExecBinary
	Binary       string
	EventHandler *EventHandler
	Stderr       io.Writer
	Stdout       io.Writer
}

// ExecPusher pushes a file to an ingest target by invoking an external tool.
// It's the simple variant of the in-process pipeline: streams are copied, not transcoded.
type ExecPusher struct {
	binary string
	eh     *EventHandler
	stderr io.Writer
	stdout io.Writer
}

// NewExecPusher creates a new exec pusher
func NewExecPusher(o ExecPusherOptions) *ExecPusher {
	p := &ExecPusher{
		binary: o.Binary,
		eh:     o.EventHandler,
		stderr: o.Stderr,
		stdout: o.Stdout,
	}
	if p.binary == "" {
		p.binary = DefaultExecBinary
	}
	return p
}

// Name implements the Namer interface
func (p *ExecPusher) Name() string {
	return "exec_pusher"
}

// ExecOptions represents the options of a single push
type ExecOptions struct {
	// Defaults to flv
	Format string
	// Reads the input at its native frame rate
	Realtime bool
	// Opaque diagnostic tag added to the output metadata. A random one is generated when empty.
	Tag string
}

// Args returns the arguments the tool is invoked with
func (p *ExecPusher) Args(input string, t IngestTarget, o ExecOptions) (args []string) {
	// Get format
	format := o.Format
	if format == "" {
		format = "flv"
	}

	// Input
	if o.Realtime {
		args = append(args, "-re")
	}
	args = append(args, "-i", input)

	// Codecs
	args = append(args, "-c:v", "copy", "-c:a", "copy")

	// Output
	args = append(args, "-f", format)
	if o.Tag != "" {
		args = append(args, "-metadata", "comment="+o.Tag)
	}
	args = append(args, t.URL())
	return
}

// Push invokes the tool and waits for it to exit.
// A non zero exit status is returned as an *ExternalProcessError, no retry is attempted.
func (p *ExecPusher) Push(ctx context.Context, input string, t IngestTarget, o ExecOptions) (err error) {
	// Validate target
	if err = t.Validate(); err != nil {
		return
	}

	// Generate tag
	if o.Tag == "" {
		o.Tag = uuid.NewString()
	}

	// Create command
	args := p.Args(input, t, o)
	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	// Emit
	e := EventExec{Args: args, Tag: o.Tag}
	p.eh.Emit(Event{Name: EventNameExecStarted, Payload: e, Target: p})

	// Run
	startedAt := time.Now()
	errRun := cmd.Run()
	e.Duration = time.Since(startedAt)
	if cmd.ProcessState != nil {
		e.Status = cmd.ProcessState.String()
	}

	// Process error
	if errRun != nil {
		var ee *exec.ExitError
		if errors.As(errRun, &ee) {
			err = &ExternalProcessError{Err: errRun, Status: ee.ProcessState.String()}
		} else {
			err = fmt.Errorf("livepush: running %s failed: %w", p.binary, errRun)
		}
		if e.Status == "" {
			e.Status = errRun.Error()
		}
	}

	// Emit
	p.eh.Emit(Event{Name: EventNameExecStopped, Payload: e, Target: p})
	return
}
