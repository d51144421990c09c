// Package metrics records build metrics for dependo.
package metrics

import (
	"time"

	"go.trai.ch/dependo/internal/core/domain"
)

// ResultLabel is the result label attached to build step and build metrics.
type ResultLabel string

const (
	// ResultSuccess labels a successful build or build step.
	ResultSuccess ResultLabel = "success"
	// ResultFailed labels a failed build or build step.
	ResultFailed ResultLabel = "failed"
)

func resultOf(success bool) ResultLabel {
	if success {
		return ResultSuccess
	}
	return ResultFailed
}

// NoopRecorder discards every observation.
type NoopRecorder struct{}

// ObserveNode implements ports.Recorder.
func (NoopRecorder) ObserveNode(domain.NodeStatus, time.Duration) {}

// ObserveBuildStep implements ports.Recorder.
func (NoopRecorder) ObserveBuildStep(time.Duration, bool) {}

// ObserveBuild implements ports.Recorder.
func (NoopRecorder) ObserveBuild(time.Duration, bool) {}

// SetRunningSteps implements ports.Recorder.
func (NoopRecorder) SetRunningSteps(int) {}

// WriteTextfile writes nothing.
func (NoopRecorder) WriteTextfile(string) error { return nil }
