// Package app implements the application layer for dependo.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"go.trai.ch/dependo/internal/adapters/detector"
	"go.trai.ch/dependo/internal/adapters/linear"
	"go.trai.ch/dependo/internal/adapters/metrics"
	"go.trai.ch/dependo/internal/adapters/telemetry"
	"go.trai.ch/dependo/internal/adapters/watcher"
	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"go.trai.ch/dependo/internal/engine/orchestrator"
	"go.trai.ch/dependo/internal/ui/output"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Metrics records build metrics and can persist them.
type Metrics interface {
	ports.Recorder
	WriteTextfile(path string) error
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	stamper      ports.Stamper
	scanner      ports.Scanner
	logger       ports.Logger
	metrics      Metrics
	newWatcher   watcher.Factory

	stdout io.Writer
	stderr io.Writer
	detect func() detector.OutputMode
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	stamper ports.Stamper,
	scanner ports.Scanner,
	log ports.Logger,
	recorder Metrics,
	newWatcher watcher.Factory,
) *App {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &App{
		configLoader: loader,
		executor:     executor,
		stamper:      stamper,
		scanner:      scanner,
		logger:       log,
		metrics:      recorder,
		newWatcher:   newWatcher,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		detect:       detector.DetectEnvironment,
	}
}

// WithOutput redirects build progress and build step output.
// This is primarily used for testing.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// RunOptions configuration for the Run and Watch methods.
type RunOptions struct {
	// File is the rules file; empty means discovery from the working directory.
	File string
	// Jobs limits concurrently running build steps; zero means unbounded.
	Jobs int
	// OutputMode is one of auto, pretty, plain, ci or json.
	OutputMode string
	// MetricsFile receives the build metrics in Prometheus text format.
	MetricsFile string
}

// session is a loaded and compiled rules file.
type session struct {
	book    *domain.Rulebook
	program *Program
}

// Run builds the specified targets.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	s, err := a.load(opts.File)
	if err != nil {
		return err
	}

	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	return a.build(ctx, s, targetNames, opts)
}

// Deps returns the direct dependencies of node.
func (a *App) Deps(ctx context.Context, node string, file string) ([]domain.Node, error) {
	s, err := a.load(file)
	if err != nil {
		return nil, err
	}
	return s.program.Dependencies(ctx, domain.Node(node))
}

// load reads and compiles the rules file and changes into its directory,
// which makes node names relative to the rules file.
func (a *App) load(file string) (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to get working directory")
	}

	book, err := a.configLoader.Load(cwd, file)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	if book.Root != "" && filepath.Clean(book.Root) != filepath.Clean(cwd) {
		if err := os.Chdir(book.Root); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to change directory"), "path", book.Root)
		}
	}

	program, err := Compile(book, a.executor, a.scanner, a.logger)
	if err != nil {
		return nil, err
	}

	return &session{book: book, program: program}, nil
}

func (a *App) build(ctx context.Context, s *session, targetNames []string, opts RunOptions) error {
	mode := detector.ResolveMode(a.detect(), opts.OutputMode)
	renderer, flush := a.newRenderer(mode)

	tp := telemetry.NewTracerProvider(renderer)
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()
	tracer := telemetry.NewOTelTracer("dependo", telemetry.WithTracerProvider(tp)).WithRenderer(renderer)

	buildOpts := []orchestrator.Option{
		orchestrator.WithTracer(tracer),
		orchestrator.WithJobs(opts.Jobs),
		orchestrator.WithRecorder(a.metrics),
	}
	if s.book.PhonyAlwaysStale {
		buildOpts = append(buildOpts, orchestrator.WithPhonyAlwaysStale())
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		ctx, span := tracer.Start(ctx, "build", ports.WithNewRoot())
		span.SetAttribute("build.id", uuid.NewString())
		span.SetAttribute("build.roots", strings.Join(targetNames, " "))
		span.SetAttribute("build.rules_file", s.book.Path)
		depRules, stepRules := s.program.rules.Len()
		span.SetAttribute("build.dependency_rules", depRules)
		span.SetAttribute("build.step_rules", stepRules)

		err := s.program.Build(ctx, domain.NodesOf(nodes(targetNames)...), a.stamper.Stamp, buildOpts...)
		span.RecordError(err)
		span.End()

		if err != nil {
			return errors.Join(domain.ErrBuildFailed, err)
		}
		return nil
	})

	err := g.Wait()
	flush()

	if opts.MetricsFile != "" {
		if mErr := a.metrics.WriteTextfile(opts.MetricsFile); mErr != nil {
			err = errors.Join(err, mErr)
		}
	}

	return err
}

// newRenderer creates the renderer for mode and a function flushing any
// output it still buffers once the build is over.
func (a *App) newRenderer(mode detector.OutputMode) (ports.Renderer, func()) {
	switch mode {
	case detector.ModeJSON:
		if j, ok := a.logger.(interface{ SetJSON(bool) }); ok {
			j.SetJSON(true)
		}
		w := newLineWriter(a.logger.Info)
		return linear.NewRenderer(w, w, linear.WithColorProfile(asciiProfile)), w.Flush
	case detector.ModePretty:
		return linear.NewRenderer(a.stdout, a.stderr, linear.WithColorProfile(output.ColorProfile)), func() {}
	default:
		return linear.NewRenderer(a.stdout, a.stderr), func() {}
	}
}

func asciiProfile() termenv.Profile {
	return termenv.Ascii
}

func nodes(names []string) []domain.Node {
	out := make([]domain.Node, len(names))
	for i, n := range names {
		out[i] = domain.Node(n)
	}
	return out
}

// Watch builds the targets, then rebuilds them whenever a file below the
// rules file directory changes. A change to the rules file reloads it.
// Build failures are logged and do not stop watching. Watch returns when ctx
// is done.
func (a *App) Watch(ctx context.Context, targetNames []string, opts RunOptions) error {
	s, err := a.load(opts.File)
	if err != nil {
		return err
	}

	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	w, err := a.newWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Stop()
	}()

	if err := w.Start(ctx, s.book.Root); err != nil {
		return err
	}

	changes := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})
	defer debouncer.Stop()

	// Events raised while a build runs come from the build itself.
	var building atomic.Bool
	go func() {
		for event := range w.Events() {
			if building.Load() {
				continue
			}
			debouncer.Add(event.Path)
		}
	}()

	rebuild := func(s *session) {
		building.Store(true)
		defer building.Store(false)

		a.rebuild(ctx, s, targetNames, opts)
		debouncer.Stop()
		select {
		case <-changes:
		default:
		}
	}

	rebuild(s)

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			a.logger.Info(fmt.Sprintf("change detected in %s", summarize(paths)))

			if slices.Contains(paths, s.book.Path) {
				reloaded, err := a.load(s.book.Path)
				if err != nil {
					a.logger.Error(err)
					continue
				}
				s = reloaded
			}

			rebuild(s)
		}
	}
}

func (a *App) rebuild(ctx context.Context, s *session, targetNames []string, opts RunOptions) {
	err := a.build(ctx, s, targetNames, opts)
	if err != nil && ctx.Err() == nil && !errors.Is(err, domain.ErrBuildFailed) {
		a.logger.Error(err)
	}
}

func summarize(paths []string) string {
	const shown = 3
	if len(paths) <= shown {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(paths[:shown], ", "), len(paths)-shown)
}
