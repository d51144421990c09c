package app

import (
	"context"
	"maps"
	"slices"

	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"go.trai.ch/dependo/internal/engine/orchestrator"
	"go.trai.ch/dependo/internal/engine/resolver"
	"go.trai.ch/dependo/internal/engine/rules"
	"go.trai.ch/zerr"
)

// Program is a compiled rules file.
type Program struct {
	rules    *rules.Rules
	resolver *resolver.Resolver
	logger   ports.Logger
}

// Dependencies returns the direct dependencies of node.
func (p *Program) Dependencies(ctx context.Context, node domain.Node) ([]domain.Node, error) {
	return p.resolver.Resolve(ctx, node)
}

// Build builds roots with file stamps from stamper.
func (p *Program) Build(ctx context.Context, roots domain.MultiNode, stamper domain.Stamper[int64], opts ...orchestrator.Option) error {
	opts = append([]orchestrator.Option{orchestrator.WithLogger(p.logger)}, opts...)
	return orchestrator.New(p.rules, stamper, opts...).Build(ctx, roots)
}

// compiler turns a rulebook into engine rules backed by the executor and scanner.
type compiler struct {
	book     *domain.Rulebook
	builder  *rules.Builder
	program  *Program
	executor ports.Executor
	scanner  ports.Scanner
	env      []string
}

// Compile registers every rule of book. Requirements using templates or a scan
// become dynamic requirements; run templates become build steps executed by
// executor in the rulebook root.
func Compile(book *domain.Rulebook, executor ports.Executor, scanner ports.Scanner, log ports.Logger) (*Program, error) {
	c := &compiler{
		book:     book,
		builder:  rules.NewBuilder(),
		executor: executor,
		scanner:  scanner,
		env:      environ(book.Environment),
	}

	for _, target := range book.Phony {
		if err := c.builder.AddPhonyTarget(target); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "cannot register phony target"), "target", target.String())
		}
	}

	for i := range book.Rules {
		if err := c.register(&book.Rules[i]); err != nil {
			return nil, zerr.With(zerr.With(zerr.Wrap(err, "cannot register rule"), "rule", book.Rules[i].Index), "path", book.Path)
		}
	}

	r := c.builder.Build()
	c.program = &Program{rules: r, resolver: resolver.New(r), logger: log}
	return c.program, nil
}

func (c *compiler) register(rule *domain.RuleSpec) error {
	if rule.HasDependencies() {
		if err := c.builder.AddDependency(rule.Target, c.requirement(rule)); err != nil {
			return err
		}
	}
	if rule.HasBuildStep() {
		if err := c.builder.AddBuildStep(rule.Target, c.buildStep(rule)); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) requirement(rule *domain.RuleSpec) domain.Requirement {
	if rule.Scan == nil && isStatic(rule.Requires) {
		if len(rule.Requires) == 1 {
			return domain.Requires(domain.Node(rule.Requires[0]))
		}
		nodes := make([]domain.Node, len(rule.Requires))
		for i, r := range rule.Requires {
			nodes[i] = domain.Node(r)
		}
		return domain.RequiresAll(nodes...)
	}

	requires := rule.Requires
	scan := rule.Scan

	return domain.RequiresFunc(func(ctx context.Context, captures domain.Captures) (domain.MultiNode, error) {
		vars := templateVars{node: nodeOf(ctx, captures), captures: captures}

		deps := make(domain.Nodes, 0, len(requires))
		for _, arg := range expandArgs(requires, vars) {
			deps = append(deps, domain.Node(arg))
		}

		if scan == nil {
			return deps, nil
		}

		names, err := c.scanner.Scan(ctx, expand(scan.File, vars), scan.Regex)
		if err != nil {
			return nil, err
		}
		prefix := expand(scan.Prefix, vars)
		for _, name := range names {
			deps = append(deps, domain.Node(prefix+name))
		}
		return deps, nil
	})
}

func (c *compiler) buildStep(rule *domain.RuleSpec) domain.BuildStep {
	run := rule.Run
	needsDeps := usesDeps(run)

	return func(ctx context.Context, captures domain.Captures) error {
		vars := templateVars{node: nodeOf(ctx, captures), captures: captures}

		if needsDeps {
			deps, err := c.program.Dependencies(ctx, vars.node)
			if err != nil {
				return err
			}
			vars.deps = deps
		}

		out := orchestrator.Output(ctx)
		return c.executor.Execute(ctx, &domain.Command{
			Node: vars.node,
			Args: expandArgs(run, vars),
			Dir:  c.book.Root,
			Env:  c.env,
		}, out, out)
	}
}

// nodeOf returns the node being resolved or built, falling back to the whole
// match when the engine did not record one.
func nodeOf(ctx context.Context, captures domain.Captures) domain.Node {
	if node, ok := domain.NodeFromContext(ctx); ok {
		return node
	}
	return domain.Node(captures.Get(0))
}

func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}
