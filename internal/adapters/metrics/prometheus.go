package metrics

import (
	"errors"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/zerr"
)

const namespace = "dependo"

// PrometheusRecorder implements ports.Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	reg           *prom.Registry
	nodeDuration  *prom.HistogramVec
	nodeStatus    *prom.CounterVec
	stepDuration  *prom.HistogramVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	runningSteps  prom.Gauge
}

// NewPrometheusRecorder constructs the build metrics and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.nodeDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Time spent visiting a node, including its dependencies",
			Buckets:   prom.DefBuckets,
		}, []string{"status"})
		pr.nodeStatus = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_total",
			Help:      "Visited nodes by terminal status",
		}, []string{"status"})
		pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_step_duration_seconds",
			Help:      "Duration of individual build steps",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final result",
		}, []string{"result"})
		pr.runningSteps = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "running_build_steps",
			Help:      "Build steps currently executing",
		})
		reg.MustRegister(pr.nodeDuration, pr.nodeStatus, pr.stepDuration, pr.buildDuration, pr.buildOutcome, pr.runningSteps)
	})
	return pr
}

// ObserveNode implements ports.Recorder.
func (p *PrometheusRecorder) ObserveNode(status domain.NodeStatus, d time.Duration) {
	if p == nil || p.nodeDuration == nil {
		return
	}
	p.nodeDuration.WithLabelValues(string(status)).Observe(d.Seconds())
	p.nodeStatus.WithLabelValues(string(status)).Inc()
}

// ObserveBuildStep implements ports.Recorder.
func (p *PrometheusRecorder) ObserveBuildStep(d time.Duration, success bool) {
	if p == nil || p.stepDuration == nil {
		return
	}
	p.stepDuration.WithLabelValues(string(resultOf(success))).Observe(d.Seconds())
}

// ObserveBuild implements ports.Recorder.
func (p *PrometheusRecorder) ObserveBuild(d time.Duration, success bool) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
	p.buildOutcome.WithLabelValues(string(resultOf(success))).Inc()
}

// SetRunningSteps implements ports.Recorder.
func (p *PrometheusRecorder) SetRunningSteps(n int) {
	if p == nil || p.runningSteps == nil {
		return
	}
	p.runningSteps.Set(float64(n))
}

// WriteTextfile writes the gathered metrics to path in the text exposition
// format, for the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || p.reg == nil {
		return nil
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return errors.Join(zerr.With(zerr.Wrap(err, "cannot write metrics"), "path", path), domain.ErrMetricsWriteFailed)
	}
	return nil
}
