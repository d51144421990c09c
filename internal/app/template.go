package app

import (
	"strings"

	"go.trai.ch/dependo/internal/core/domain"
)

// templateVars holds the values substituted into rule templates.
type templateVars struct {
	node     domain.Node
	captures domain.Captures
	deps     []domain.Node
}

// expand substitutes $0 to $9 with captures, $@ with the node, $^ with the
// space separated dependencies and $$ with a literal dollar sign. Any other
// sequence is kept as written.
func expand(tmpl string, vars templateVars) string {
	if !strings.Contains(tmpl, "$") {
		return tmpl
	}

	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' || i+1 == len(tmpl) {
			b.WriteByte(c)
			continue
		}

		next := tmpl[i+1]
		switch {
		case next >= '0' && next <= '9':
			b.WriteString(vars.captures.Get(int(next - '0')))
		case next == '@':
			b.WriteString(vars.node.String())
		case next == '^':
			b.WriteString(strings.Join(domain.Strings(vars.deps), " "))
		case next == '$':
			b.WriteByte('$')
		default:
			b.WriteByte(c)
			continue
		}
		i++
	}

	return b.String()
}

// expandArgs expands every argument. An argument that is exactly "$^"
// becomes one argument per dependency.
func expandArgs(args []string, vars templateVars) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "$^" {
			out = append(out, domain.Strings(vars.deps)...)
			continue
		}
		out = append(out, expand(arg, vars))
	}
	return out
}

// isStatic reports whether none of tmpls uses a substitution.
func isStatic(tmpls []string) bool {
	for _, t := range tmpls {
		if strings.Contains(t, "$") {
			return false
		}
	}
	return true
}

// usesDeps reports whether any of tmpls refers to the resolved dependencies.
func usesDeps(tmpls []string) bool {
	for _, t := range tmpls {
		if strings.Contains(strings.ReplaceAll(t, "$$", ""), "$^") {
			return true
		}
	}
	return false
}
