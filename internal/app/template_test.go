package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/dependo/internal/app"
	"go.trai.ch/dependo/internal/core/domain"
)

func TestExpand(t *testing.T) {
	captures := domain.Captures{"src/a.o", "src/a"}
	deps := []domain.Node{"src/a.c", "include/a.h"}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"plain text", "cc", "cc"},
		{"whole match", "$0", "src/a.o"},
		{"capture group", "$1.c", "src/a.c"},
		{"missing group", "x$7y", "xy"},
		{"node", "-o=$@", "-o=lib/src/a.o"},
		{"deps", "$^", "src/a.c include/a.h"},
		{"escaped dollar", "$$1", "$1"},
		{"unknown sequence", "$HOME/$x", "$HOME/$x"},
		{"trailing dollar", "cost$", "cost$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, app.Expand(tt.tmpl, "lib/src/a.o", captures, deps))
		})
	}
}

func TestExpandArgs_SplicesDeps(t *testing.T) {
	got := app.ExpandArgs(
		[]string{"cc", "-o", "$@", "$^"},
		"prog",
		domain.Captures{"prog"},
		[]domain.Node{"a.o", "b.o"},
	)
	assert.Equal(t, []string{"cc", "-o", "prog", "a.o", "b.o"}, got)

	got = app.ExpandArgs([]string{"ls", "$^"}, "empty", domain.Captures{"empty"}, nil)
	assert.Equal(t, []string{"ls"}, got)
}

func TestUsesDeps(t *testing.T) {
	assert.True(t, app.UsesDeps([]string{"cc", "$^"}))
	assert.True(t, app.UsesDeps([]string{"echo deps=$^"}))
	assert.True(t, app.UsesDeps([]string{"$$$^"}))
	assert.False(t, app.UsesDeps([]string{"echo", "$$^"}))
	assert.False(t, app.UsesDeps([]string{"cc", "$1.c"}))
}
