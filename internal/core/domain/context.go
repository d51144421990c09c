package domain

import "context"

type nodeKey struct{}

// ContextWithNode returns a copy of ctx carrying the node being resolved or built.
func ContextWithNode(ctx context.Context, node Node) context.Context {
	return context.WithValue(ctx, nodeKey{}, node)
}

// NodeFromContext returns the node stored by ContextWithNode.
func NodeFromContext(ctx context.Context) (Node, bool) {
	n, ok := ctx.Value(nodeKey{}).(Node)
	return n, ok
}
