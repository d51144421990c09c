package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/dependo/internal/core/domain"
)

func TestFlatten(t *testing.T) {
	a, b, c := domain.Node("a"), domain.Node("b"), domain.Node("c")

	tests := []struct {
		name     string
		input    domain.MultiNode
		expected []domain.Node
	}{
		{"single node", a, []domain.Node{a}},
		{"flat list", domain.NodesOf(a, b, c), []domain.Node{a, b, c}},
		{"nested", domain.Nodes{domain.Nodes{a, domain.Nodes{b}}, c}, []domain.Node{a, b, c}},
		{"deeply nested empty", domain.Nodes{domain.Nodes{domain.Nodes{}}}, []domain.Node{}},
		{"nil", nil, []domain.Node{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.Flatten(tt.input))
		})
	}
}

func TestWalk_StopsEarly(t *testing.T) {
	var seen []domain.Node
	for n := range domain.Walk(domain.NodesOf("a", "b", "c")) {
		seen = append(seen, n)
		if n == "b" {
			break
		}
	}
	assert.Equal(t, []domain.Node{"a", "b"}, seen)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"x", "y"}, domain.Strings([]domain.Node{"x", "y"}))
	assert.Empty(t, domain.Strings(nil))
}

func TestNodeFromContext(t *testing.T) {
	_, ok := domain.NodeFromContext(t.Context())
	assert.False(t, ok)

	node, ok := domain.NodeFromContext(domain.ContextWithNode(t.Context(), "a.o"))
	assert.True(t, ok)
	assert.Equal(t, domain.Node("a.o"), node)
}
