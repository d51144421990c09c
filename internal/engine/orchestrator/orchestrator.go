// Package orchestrator implements the recursive build driver.
//
// For every node it visits, the orchestrator resolves the node's dependencies,
// builds them in parallel, stamps the node and its direct dependencies, and runs
// the node's build step if any dependency stamp is newer than the node's own.
// Nothing is memoised: a node reachable through several paths is visited once
// per path. A node that depends on itself, directly or through other nodes,
// fails with domain.ErrDependencyCycle instead of recursing.
package orchestrator

import (
	"cmp"
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/engine/fanin"
	"go.trai.ch/dependo/internal/engine/resolver"
	"go.trai.ch/dependo/internal/engine/rules"
	"go.trai.ch/zerr"
)

// Orchestrator builds nodes against an immutable rule set using stamps of type S.
type Orchestrator[S cmp.Ordered] struct {
	rules    *rules.Rules
	resolver *resolver.Resolver
	stamper  domain.Stamper[S]
	opts     options
	running  atomic.Int64
}

// New creates an Orchestrator.
func New[S cmp.Ordered](r *rules.Rules, stamper domain.Stamper[S], opts ...Option) *Orchestrator[S] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Orchestrator[S]{
		rules:    r,
		resolver: resolver.New(r),
		stamper:  stamper,
		opts:     o,
	}
}

// Build flattens roots and builds every root in parallel.
// It returns the first failure; partial progress is not rolled back.
func (o *Orchestrator[S]) Build(ctx context.Context, roots domain.MultiNode) error {
	nodes := domain.Flatten(roots)
	o.opts.tracer.EmitPlan(ctx, domain.Strings(nodes))

	start := time.Now()
	err := fanin.ForEach(ctx, nodes, o.buildNode)
	o.opts.recorder.ObserveBuild(time.Since(start), err == nil)

	return err
}

// Start runs Build on a new goroutine and reports its outcome to done.
// A nil done logs the failure, if any, and otherwise does nothing.
func (o *Orchestrator[S]) Start(ctx context.Context, roots domain.MultiNode, done func(error)) {
	if done == nil {
		done = func(err error) {
			if err != nil {
				o.opts.logger.Error(err)
			}
		}
	}

	go func() {
		done(o.Build(ctx, roots))
	}()
}

// Execute runs the first build step whose target matches node.
func (o *Orchestrator[S]) Execute(ctx context.Context, node domain.Node) error {
	step, captures, ok := o.rules.MatchBuildStep(node)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrNoBuildStep, "cannot build "+node.String()), "node", node.String())
	}

	if o.opts.jobs != nil {
		if err := o.opts.jobs.Acquire(ctx, 1); err != nil {
			return zerr.With(zerr.Wrap(err, "build step was not started"), "node", node.String())
		}
		defer o.opts.jobs.Release(1)
	}

	ctx, span := o.opts.tracer.Start(ctx, node.String())
	defer span.End()

	o.opts.recorder.SetRunningSteps(int(o.running.Add(1)))
	start := time.Now()

	err := step(domain.ContextWithNode(withOutput(ctx, span), node), captures)

	o.opts.recorder.ObserveBuildStep(time.Since(start), err == nil)
	o.opts.recorder.SetRunningSteps(int(o.running.Add(-1)))

	if err != nil {
		span.RecordError(err)
		return errors.Join(
			domain.ErrBuildStepFailed,
			zerr.With(zerr.Wrap(err, "cannot build "+node.String()), "node", node.String()),
		)
	}

	return nil
}

func (o *Orchestrator[S]) buildNode(ctx context.Context, node domain.Node) (err error) {
	start := time.Now()
	status := domain.NodeStatusFailed
	defer func() {
		o.opts.recorder.ObserveNode(status, time.Since(start))
	}()

	if chain := pathFrom(ctx).cycle(node); chain != nil {
		cycle := formatCycle(chain)
		return zerr.With(zerr.Wrap(domain.ErrDependencyCycle, cycle), "node", node.String())
	}

	deps, err := o.resolver.Resolve(ctx, node)
	if err != nil {
		return err
	}

	if err = fanin.ForEach(withVisit(ctx, node), deps, o.buildNode); err != nil {
		return err
	}

	stale, err := o.isStale(ctx, node, deps)
	if err != nil {
		return err
	}
	if !stale {
		status = domain.NodeStatusUpToDate
		return nil
	}

	if err = o.Execute(ctx, node); err != nil {
		return err
	}

	status = domain.NodeStatusBuilt
	return nil
}

func (o *Orchestrator[S]) isStale(ctx context.Context, node domain.Node, deps []domain.Node) (bool, error) {
	if o.opts.phonyAlwaysStale && o.rules.IsPhony(node) {
		return true, nil
	}

	nodes := make([]domain.Node, 0, len(deps)+1)
	nodes = append(nodes, node)
	nodes = append(nodes, deps...)

	stamps, err := fanin.Map(ctx, nodes, o.stamp)
	if err != nil {
		return false, err
	}

	return domain.IsStale(stamps[0], stamps[1:]), nil
}

func (o *Orchestrator[S]) stamp(ctx context.Context, node domain.Node) (S, error) {
	s, err := o.stamper(ctx, node)
	if err != nil {
		var zero S
		return zero, errors.Join(
			domain.ErrStampFailed,
			zerr.With(zerr.Wrap(err, "cannot stamp "+node.String()), "node", node.String()),
		)
	}
	return s, nil
}
