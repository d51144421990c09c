// Package domain contains the core domain model of the dependo build engine:
// nodes, targets, requirements, stamps and the errors shared across layers.
package domain

import (
	"iter"
	"slices"
)

// Node identifies a buildable artifact or an abstract unit of work.
type Node string

// String returns the node name.
func (n Node) String() string {
	return string(n)
}

// MultiNode is either a single Node or an arbitrarily nested sequence of MultiNode.
// It is always flattened before use.
type MultiNode interface {
	isMultiNode()
}

// Nodes is an ordered, possibly nested sequence of MultiNode.
type Nodes []MultiNode

func (Node) isMultiNode()  {}
func (Nodes) isMultiNode() {}

// NodesOf converts a flat list of nodes into a Nodes sequence.
func NodesOf(nodes ...Node) Nodes {
	out := make(Nodes, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// Walk returns an iterator yielding the nodes of m depth-first, left to right.
// A nil MultiNode yields nothing.
func Walk(m MultiNode) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		walk(m, yield)
	}
}

func walk(m MultiNode, yield func(Node) bool) bool {
	switch v := m.(type) {
	case Node:
		return yield(v)
	case Nodes:
		for _, child := range v {
			if !walk(child, yield) {
				return false
			}
		}
	}
	return true
}

// Flatten returns the nodes of m in depth-first order with all nesting removed.
func Flatten(m MultiNode) []Node {
	out := slices.Collect(Walk(m))
	if out == nil {
		return []Node{}
	}
	return out
}

// Strings converts nodes to their string form.
func Strings(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = string(n)
	}
	return out
}
