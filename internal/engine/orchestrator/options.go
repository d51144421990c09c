package orchestrator

import (
	"context"
	"time"

	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"golang.org/x/sync/semaphore"
)

type options struct {
	logger           ports.Logger
	tracer           ports.Tracer
	recorder         ports.Recorder
	jobs             *semaphore.Weighted
	phonyAlwaysStale bool
}

// Option configures an Orchestrator.
type Option func(*options)

// WithLogger sets the logger used to report failures of asynchronous builds.
func WithLogger(l ports.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer sets the tracer that receives one span per executed build step.
func WithTracer(t ports.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r ports.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithJobs limits the number of build steps running at the same time.
// Values below one leave execution unbounded.
func WithJobs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.jobs = semaphore.NewWeighted(int64(n))
		} else {
			o.jobs = nil
		}
	}
}

// WithPhonyAlwaysStale makes nodes matching a phony target execute on every
// visit, regardless of stamps.
func WithPhonyAlwaysStale() Option {
	return func(o *options) {
		o.phonyAlwaysStale = true
	}
}

func defaultOptions() options {
	return options{
		logger:   nopLogger{},
		tracer:   nopTracer{},
		recorder: nopRecorder{},
	}
}

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}

type nopTracer struct{}

func (nopTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, nopSpan{}
}

func (nopTracer) EmitPlan(context.Context, []string) {}

type nopSpan struct{}

func (nopSpan) Write(p []byte) (int, error) { return len(p), nil }
func (nopSpan) End()                        {}
func (nopSpan) RecordError(error)           {}
func (nopSpan) SetAttribute(string, any)    {}

type nopRecorder struct{}

func (nopRecorder) ObserveNode(domain.NodeStatus, time.Duration) {}
func (nopRecorder) ObserveBuildStep(time.Duration, bool)         {}
func (nopRecorder) ObserveBuild(time.Duration, bool)             {}
func (nopRecorder) SetRunningSteps(int)                          {}
