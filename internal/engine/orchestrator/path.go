package orchestrator

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/dependo/internal/core/domain"
)

type pathKey struct{}

// visitPath is the chain of nodes from a root to the node being visited.
type visitPath struct {
	node   domain.Node
	parent *visitPath
}

func pathFrom(ctx context.Context) *visitPath {
	p, _ := ctx.Value(pathKey{}).(*visitPath)
	return p
}

func withVisit(ctx context.Context, node domain.Node) context.Context {
	return context.WithValue(ctx, pathKey{}, &visitPath{node: node, parent: pathFrom(ctx)})
}

// cycle returns the nodes from the earlier visit of node down to node itself,
// or nil if node is not on the path.
func (p *visitPath) cycle(node domain.Node) []domain.Node {
	chain := []domain.Node{node}
	for cur := p; cur != nil; cur = cur.parent {
		chain = append(chain, cur.node)
		if cur.node == node {
			slices.Reverse(chain)
			return chain
		}
	}
	return nil
}

func formatCycle(chain []domain.Node) string {
	return strings.Join(domain.Strings(chain), " -> ")
}
