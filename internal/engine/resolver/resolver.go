// Package resolver turns the requirement matching a node into its ordered,
// flattened list of dependencies.
package resolver

import (
	"context"
	"errors"
	"slices"

	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/engine/rules"
	"go.trai.ch/zerr"
)

// Resolver resolves dependencies against an immutable rule set.
type Resolver struct {
	rules *rules.Rules
}

// New creates a Resolver over r.
func New(r *rules.Rules) *Resolver {
	return &Resolver{rules: r}
}

// Resolve returns the dependencies of node using the first dependency rule
// that matches it. A node without a matching rule has no dependencies.
// Failures of dynamic requirements are joined with domain.ErrDependencyResolution
// and keep the original error in their chain.
func (r *Resolver) Resolve(ctx context.Context, node domain.Node) ([]domain.Node, error) {
	req, captures, ok := r.rules.MatchDependency(node)
	if !ok {
		return []domain.Node{}, nil
	}

	switch v := req.(type) {
	case domain.LiteralRequirement:
		return []domain.Node{v.Node}, nil
	case domain.ListRequirement:
		return slices.Clone(v.Nodes), nil
	case domain.DynamicRequirement:
		multi, err := v.Fn(domain.ContextWithNode(ctx, node), captures)
		if err != nil {
			return nil, errors.Join(
				domain.ErrDependencyResolution,
				zerr.With(zerr.Wrap(err, "dynamic requirement failed"), "node", node.String()),
			)
		}
		return domain.Flatten(multi), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedRequirement, "cannot resolve "+node.String()), "node", node.String())
	}
}
