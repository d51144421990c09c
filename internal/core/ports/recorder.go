package ports

import (
	"time"

	"go.trai.ch/dependo/internal/core/domain"
)

// Recorder defines observability hooks for build metrics.
//
//go:generate mockgen -source=recorder.go -destination=mocks/mock_recorder.go -package=mocks
type Recorder interface {
	// ObserveNode records the terminal status of a visited node and how long it took.
	ObserveNode(status domain.NodeStatus, d time.Duration)
	// ObserveBuildStep records the duration of a build step execution.
	ObserveBuildStep(d time.Duration, success bool)
	// ObserveBuild records the outcome and duration of a whole build.
	ObserveBuild(d time.Duration, success bool)
	// SetRunningSteps reports the number of build steps currently executing.
	SetRunningSteps(n int)
}
