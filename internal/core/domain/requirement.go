package domain

import "context"

// DynamicFunc computes the dependencies of a node from the data captured when
// its target matched.
type DynamicFunc func(ctx context.Context, captures Captures) (MultiNode, error)

// BuildStep performs the build action for a node that matched its target.
type BuildStep func(ctx context.Context, captures Captures) error

// Requirement specifies the dependencies of a node. It is resolved at query time.
// The set of implementations is closed: LiteralRequirement, ListRequirement and
// DynamicRequirement.
type Requirement interface {
	isRequirement()
}

// LiteralRequirement depends on exactly one node.
type LiteralRequirement struct {
	Node Node
}

// ListRequirement depends on an ordered list of nodes.
type ListRequirement struct {
	Nodes []Node
}

// DynamicRequirement computes its dependencies when resolved.
type DynamicRequirement struct {
	Fn DynamicFunc
}

func (LiteralRequirement) isRequirement() {}
func (ListRequirement) isRequirement()    {}
func (DynamicRequirement) isRequirement() {}

// Requires returns a literal requirement on node.
func Requires(node Node) LiteralRequirement {
	return LiteralRequirement{Node: node}
}

// RequiresAll returns a list requirement on nodes, in order.
func RequiresAll(nodes ...Node) ListRequirement {
	return ListRequirement{Nodes: nodes}
}

// RequiresFunc returns a dynamic requirement backed by fn.
func RequiresFunc(fn DynamicFunc) DynamicRequirement {
	return DynamicRequirement{Fn: fn}
}

// ValidateRequirement reports whether r is a well-formed requirement.
func ValidateRequirement(r Requirement) error {
	switch v := r.(type) {
	case LiteralRequirement, ListRequirement:
		return nil
	case DynamicRequirement:
		if v.Fn == nil {
			return ErrMalformedRequirement
		}
		return nil
	default:
		return ErrMalformedRequirement
	}
}

// ValidateBuildStep reports whether step is a usable build step.
func ValidateBuildStep(step BuildStep) error {
	if step == nil {
		return ErrMalformedBuildStep
	}
	return nil
}
