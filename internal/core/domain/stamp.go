package domain

import (
	"cmp"
	"context"
)

// Stamper produces a totally ordered stamp for a node, typically a modification time.
// It must be deterministic for the duration of a build.
type Stamper[S cmp.Ordered] func(ctx context.Context, node Node) (S, error)

// IsStale reports whether a node with the given stamp must be rebuilt, i.e.
// whether any dependency stamp is strictly greater than it.
func IsStale[S cmp.Ordered](node S, deps []S) bool {
	for _, d := range deps {
		if cmp.Compare(d, node) > 0 {
			return true
		}
	}
	return false
}
