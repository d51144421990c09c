// Package rules holds the ordered registries of dependency rules, build-step
// rules and phony declarations.
package rules

import (
	"slices"

	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/zerr"
)

// DependencyRule pairs a target with the requirement of the nodes it matches.
type DependencyRule struct {
	Target      domain.Target
	Requirement domain.Requirement
}

// BuildStepRule pairs a target with the build step producing the nodes it matches.
type BuildStepRule struct {
	Target domain.Target
	Step   domain.BuildStep
}

// Builder accumulates rules in registration order. It is not safe for concurrent use.
type Builder struct {
	dependencies []DependencyRule
	buildSteps   []BuildStepRule
	phony        []domain.Target
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddDependency registers a dependency rule.
// Rules with overlapping targets are all kept; the first registered match wins.
func (b *Builder) AddDependency(target domain.Target, req domain.Requirement) error {
	if err := domain.ValidateTarget(target); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid dependency rule"), "target", targetName(target))
	}
	if err := domain.ValidateRequirement(req); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid dependency rule"), "target", targetName(target))
	}

	b.dependencies = append(b.dependencies, DependencyRule{Target: target, Requirement: req})
	return nil
}

// AddBuildStep registers a build-step rule.
func (b *Builder) AddBuildStep(target domain.Target, step domain.BuildStep) error {
	if err := domain.ValidateTarget(target); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid build step rule"), "target", targetName(target))
	}
	if err := domain.ValidateBuildStep(step); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid build step rule"), "target", targetName(target))
	}

	b.buildSteps = append(b.buildSteps, BuildStepRule{Target: target, Step: step})
	return nil
}

// AddPhonyTarget records a phony declaration.
func (b *Builder) AddPhonyTarget(target domain.Target) error {
	if err := domain.ValidateTarget(target); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid phony declaration"), "target", targetName(target))
	}

	b.phony = append(b.phony, target)
	return nil
}

// Build returns an immutable snapshot of the registered rules.
// The Builder remains usable; later registrations do not affect the snapshot.
func (b *Builder) Build() *Rules {
	return &Rules{
		dependencies: slices.Clone(b.dependencies),
		buildSteps:   slices.Clone(b.buildSteps),
		phony:        slices.Clone(b.phony),
	}
}

// Rules is an immutable set of registered rules. It is safe for concurrent use.
type Rules struct {
	dependencies []DependencyRule
	buildSteps   []BuildStepRule
	phony        []domain.Target
}

// MatchDependency returns the first dependency rule whose target matches node,
// together with the captured data.
func (r *Rules) MatchDependency(node domain.Node) (domain.Requirement, domain.Captures, bool) {
	for _, rule := range r.dependencies {
		if captures, ok := domain.Match(rule.Target, node); ok {
			return rule.Requirement, captures, true
		}
	}
	return nil, nil, false
}

// MatchBuildStep returns the first build-step rule whose target matches node,
// together with the captured data.
func (r *Rules) MatchBuildStep(node domain.Node) (domain.BuildStep, domain.Captures, bool) {
	for _, rule := range r.buildSteps {
		if captures, ok := domain.Match(rule.Target, node); ok {
			return rule.Step, captures, true
		}
	}
	return nil, nil, false
}

// IsPhony reports whether node matches a declared phony target.
func (r *Rules) IsPhony(node domain.Node) bool {
	for _, target := range r.phony {
		if _, ok := domain.Match(target, node); ok {
			return true
		}
	}
	return false
}

// Phony returns the declared phony targets in registration order.
func (r *Rules) Phony() []domain.Target {
	return slices.Clone(r.phony)
}

// Len returns the number of dependency and build-step rules.
func (r *Rules) Len() (dependencies, buildSteps int) {
	return len(r.dependencies), len(r.buildSteps)
}

func targetName(t domain.Target) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
