package app

import (
	"io"

	"go.trai.ch/dependo/internal/adapters/detector"
	"go.trai.ch/dependo/internal/core/domain"
)

func Expand(tmpl string, node domain.Node, captures domain.Captures, deps []domain.Node) string {
	return expand(tmpl, templateVars{node: node, captures: captures, deps: deps})
}

func ExpandArgs(args []string, node domain.Node, captures domain.Captures, deps []domain.Node) []string {
	return expandArgs(args, templateVars{node: node, captures: captures, deps: deps})
}

var UsesDeps = usesDeps

type LineWriter interface {
	io.Writer
	Flush()
}

func NewLineWriter(emit func(string)) LineWriter {
	return newLineWriter(emit)
}

// WithDetectedMode replaces terminal detection.
func (a *App) WithDetectedMode(mode detector.OutputMode) *App {
	a.detect = func() detector.OutputMode { return mode }
	return a
}

// RuleCounts returns the number of dependency and build-step rules.
func (p *Program) RuleCounts() (dependencies, buildSteps int) {
	return p.rules.Len()
}
