// Package linear provides a synchronous, line-buffered progress renderer.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"go.trai.ch/dependo/internal/ui/output"
	"go.trai.ch/dependo/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer with chronological, prefixed lines.
// Spans without a parent are builds; their descendants are build steps.
// Step output goes to stdout, lifecycle messages to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu     sync.Mutex
	builds map[string]*buildState
	steps  map[string]*stepState
}

type buildState struct {
	startTime time.Time
	built     int
	failed    int
}

type stepState struct {
	name      string
	build     string
	startTime time.Time
	buf       bytes.Buffer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColorProfile selects the color profile; the default is
// output.ColorProfileANSI.
func WithColorProfile(profileFn func() termenv.Profile) Option {
	return func(r *Renderer) {
		r.output = output.NewWithProfile(r.stderr, profileFn)
	}
}

// NewRenderer creates a new Renderer. Nil writers mean stdout and stderr.
func NewRenderer(stdout, stderr io.Writer, opts ...Option) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	r := &Renderer{
		stdout: stdout,
		stderr: stderr,
		output: output.NewWithProfile(stderr, output.ColorProfileANSI),
		builds: make(map[string]*buildState),
		steps:  make(map[string]*stepState),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start is a no-op; the renderer is synchronous.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes partial lines of steps that are still running.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, step := range r.steps {
		r.flushLocked(step)
	}
	return nil
}

// Wait is a no-op; the renderer is synchronous.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit announces the roots of a build.
func (r *Renderer) OnPlanEmit(roots []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(roots) == 0 {
		_, _ = fmt.Fprintln(r.stderr, "Nothing to build")
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "Building %s\n", strings.Join(roots, ", "))
}

// OnTaskStart registers a build or announces a build step.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if parentID == "" {
		r.builds[spanID] = &buildState{startTime: startTime}
		return
	}

	build := parentID
	if parent, ok := r.steps[parentID]; ok {
		build = parent.build
	}
	r.steps[spanID] = &stepState{name: name, build: build, startTime: startTime}

	_, _ = fmt.Fprintf(r.stderr, "%s %s Starting...\n", r.prefix(name), r.status(domain.NodeStatusRunning))
}

// OnTaskLog prints complete lines of step output with the step name as prefix.
// A trailing partial line is kept until more data or completion arrives.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	step, ok := r.steps[spanID]
	if !ok {
		return
	}

	step.buf.Write(data)
	for {
		idx := bytes.IndexByte(step.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := step.buf.Next(idx + 1)
		r.printLineLocked(step.name, line)
	}
}

// OnTaskComplete prints the outcome of a step, or the summary of a build.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if step, ok := r.steps[spanID]; ok {
		r.completeStepLocked(spanID, step, endTime, err)
		return
	}

	if build, ok := r.builds[spanID]; ok {
		r.completeBuildLocked(build, endTime, err)
		delete(r.builds, spanID)
	}
}

func (r *Renderer) completeStepLocked(spanID string, step *stepState, endTime time.Time, err error) {
	r.flushLocked(step)

	duration := formatDuration(endTime.Sub(step.startTime))
	if build, ok := r.builds[step.build]; ok {
		if err != nil {
			build.failed++
		} else {
			build.built++
		}
	}

	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %s: %v\n",
			r.prefix(step.name), r.status(domain.NodeStatusFailed), duration, err)
	} else {
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %s\n",
			r.prefix(step.name), r.status(domain.NodeStatusBuilt), duration)
	}

	delete(r.steps, spanID)
}

func (r *Renderer) completeBuildLocked(build *buildState, endTime time.Time, err error) {
	duration := formatDuration(endTime.Sub(build.startTime))
	counts := fmt.Sprintf("%d built", build.built)
	if build.failed > 0 {
		counts += fmt.Sprintf(", %d failed", build.failed)
	}

	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "%s Build failed after %s (%s): %v\n",
			r.status(domain.NodeStatusFailed), duration, counts, err)
		return
	}

	if build.built == 0 {
		_, _ = fmt.Fprintf(r.stderr, "%s Everything up to date (%s)\n", r.status(domain.NodeStatusUpToDate), duration)
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "%s Build finished in %s (%s)\n", r.status(domain.NodeStatusBuilt), duration, counts)
}

func (r *Renderer) flushLocked(step *stepState) {
	if step.buf.Len() > 0 {
		r.printLineLocked(step.name, step.buf.Bytes())
		step.buf.Reset()
	}
}

func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}

func (r *Renderer) prefix(name string) string {
	return r.output.String("[" + name + "]").Faint().String()
}

func (r *Renderer) status(s domain.NodeStatus) string {
	icon, color := style.StatusIcon(s)
	return r.output.String(icon).Foreground(r.output.Color(string(color))).String()
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}
