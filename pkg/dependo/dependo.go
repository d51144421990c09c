// Package dependo is an embeddable, Make-like build engine.
//
// Rules map targets to their requirements and to the build steps producing
// them. Building a node first builds its dependencies in parallel, then runs
// the node's build step if any dependency stamp is newer than the node's own.
package dependo

import (
	"cmp"
	"context"
	"sync"

	"go.trai.ch/dependo/internal/adapters/logger"
	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"go.trai.ch/dependo/internal/engine/orchestrator"
	"go.trai.ch/dependo/internal/engine/resolver"
	"go.trai.ch/dependo/internal/engine/rules"
)

type (
	// Node identifies a buildable artifact or an abstract unit of work.
	Node = domain.Node
	// MultiNode is a Node or an arbitrarily nested Nodes.
	MultiNode = domain.MultiNode
	// Nodes is an ordered, possibly nested sequence of MultiNode.
	Nodes = domain.Nodes
	// Target decides whether a rule applies to a node.
	Target = domain.Target
	// Captures holds the data captured when a target matched; index 0 is the whole match.
	Captures = domain.Captures
	// Requirement specifies the dependencies of the nodes a target matches.
	Requirement = domain.Requirement
	// DynamicFunc computes dependencies from captures.
	DynamicFunc = domain.DynamicFunc
	// BuildStep produces a node.
	BuildStep = domain.BuildStep
	// Stamper produces a totally ordered stamp for a node.
	Stamper[S cmp.Ordered] = domain.Stamper[S]
	// Logger receives failures of builds started without a completion callback.
	Logger = ports.Logger
	// Option configures a single build.
	Option = orchestrator.Option
)

// Target and requirement constructors.
var (
	Literal      = domain.Literal
	Pattern      = domain.Pattern
	MustPattern  = domain.MustPattern
	PatternOf    = domain.PatternOf
	Glob         = domain.Glob
	AnyOf        = domain.AnyOf
	Requires     = domain.Requires
	RequiresAll  = domain.RequiresAll
	RequiresFunc = domain.RequiresFunc
	NodesOf      = domain.NodesOf
	Flatten      = domain.Flatten
)

// Build options.
var (
	WithJobs             = orchestrator.WithJobs
	WithPhonyAlwaysStale = orchestrator.WithPhonyAlwaysStale
	WithTracer           = orchestrator.WithTracer
	WithRecorder         = orchestrator.WithRecorder
	Output               = orchestrator.Output
	CurrentNode          = domain.NodeFromContext
)

// Errors reported by the engine. Use errors.Is to test for them.
var (
	ErrMalformedRule        = domain.ErrMalformedRule
	ErrMalformedTarget      = domain.ErrMalformedTarget
	ErrMalformedRequirement = domain.ErrMalformedRequirement
	ErrMalformedBuildStep   = domain.ErrMalformedBuildStep
	ErrNoBuildStep          = domain.ErrNoBuildStep
	ErrDependencyResolution = domain.ErrDependencyResolution
	ErrDependencyCycle      = domain.ErrDependencyCycle
	ErrStampFailed          = domain.ErrStampFailed
	ErrBuildStepFailed      = domain.ErrBuildStepFailed
)

// Engine holds the rules of a build. Rules may be added at any time; a build
// uses the rules registered when it started.
type Engine struct {
	mu       sync.Mutex
	builder  *rules.Builder
	snapshot *rules.Rules
	logger   ports.Logger
}

// New creates an Engine without rules that logs to stderr.
func New() *Engine {
	return &Engine{
		builder: rules.NewBuilder(),
		logger:  logger.New(),
	}
}

// SetLogger replaces the logger used by Start when no callback is given.
func (e *Engine) SetLogger(l Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l != nil {
		e.logger = l
	}
}

// AddDependency registers a dependency rule. It fails with an error wrapping
// ErrMalformedRule if target or req is malformed.
func (e *Engine) AddDependency(target Target, req Requirement) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = nil
	return e.builder.AddDependency(target, req)
}

// AddBuildStep registers a build-step rule. It fails with an error wrapping
// ErrMalformedRule if target or step is malformed.
func (e *Engine) AddBuildStep(target Target, step BuildStep) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = nil
	return e.builder.AddBuildStep(target, step)
}

// AddPhonyTarget records a phony declaration. Phony targets only affect
// builds run with WithPhonyAlwaysStale.
func (e *Engine) AddPhonyTarget(target Target) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = nil
	return e.builder.AddPhonyTarget(target)
}

// GetDependencies returns the dependencies of node. A node without a matching
// dependency rule has none.
func (e *Engine) GetDependencies(ctx context.Context, node Node) ([]Node, error) {
	return resolver.New(e.currentRules()).Resolve(ctx, node)
}

func (e *Engine) currentRules() *rules.Rules {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snapshot == nil {
		e.snapshot = e.builder.Build()
	}
	return e.snapshot
}

func (e *Engine) buildOptions(opts []Option) []Option {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Option{orchestrator.WithLogger(e.logger)}, opts...)
}

// Build builds roots and returns the first failure, if any.
func Build[S cmp.Ordered](ctx context.Context, e *Engine, roots MultiNode, stamper Stamper[S], opts ...Option) error {
	return orchestrator.New(e.currentRules(), stamper, e.buildOptions(opts)...).Build(ctx, roots)
}

// Start builds roots in the background and reports the outcome to done.
// A nil done logs the failure through the engine logger.
func Start[S cmp.Ordered](
	ctx context.Context,
	e *Engine,
	roots MultiNode,
	stamper Stamper[S],
	done func(error),
	opts ...Option,
) {
	orchestrator.New(e.currentRules(), stamper, e.buildOptions(opts)...).Start(ctx, roots, done)
}
