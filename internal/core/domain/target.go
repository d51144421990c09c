package domain

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"go.trai.ch/zerr"
)

// Captures holds the data captured when a target matches a node.
// Index 0 is always the whole match.
type Captures []string

// Get returns the i-th capture, or an empty string if it does not exist.
func (c Captures) Get(i int) string {
	if i < 0 || i >= len(c) {
		return ""
	}
	return c[i]
}

// Target decides whether a rule applies to a node.
// The set of implementations is closed: LiteralTarget, PatternTarget,
// GlobTarget and CompositeTarget.
type Target interface {
	String() string
	isTarget()
}

// LiteralTarget matches exactly one node.
type LiteralTarget struct {
	Name Node
}

// PatternTarget matches nodes against a regular expression.
type PatternTarget struct {
	re *regexp.Regexp
}

// GlobTarget matches nodes against a shell-style glob.
type GlobTarget struct {
	expr string
	g    glob.Glob
}

// CompositeTarget matches if any of its members matches; the first member wins.
type CompositeTarget struct {
	Targets []Target
}

func (LiteralTarget) isTarget()   {}
func (PatternTarget) isTarget()   {}
func (GlobTarget) isTarget()      {}
func (CompositeTarget) isTarget() {}

// Literal creates a target matching exactly the given node.
func Literal(name Node) LiteralTarget {
	return LiteralTarget{Name: name}
}

// Pattern compiles expr into a pattern target.
func Pattern(expr string) (PatternTarget, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return PatternTarget{}, zerr.With(zerr.Wrap(ErrInvalidPattern, err.Error()), "pattern", expr)
	}
	return PatternTarget{re: re}, nil
}

// MustPattern is like Pattern but panics if expr does not compile.
func MustPattern(expr string) PatternTarget {
	t, err := Pattern(expr)
	if err != nil {
		panic(err)
	}
	return t
}

// PatternOf wraps an already compiled regular expression.
func PatternOf(re *regexp.Regexp) PatternTarget {
	return PatternTarget{re: re}
}

// Glob compiles expr into a glob target. '/' is treated as a separator, so
// '*' does not cross directory boundaries while '**' does.
func Glob(expr string) (GlobTarget, error) {
	g, err := glob.Compile(expr, '/')
	if err != nil {
		return GlobTarget{}, zerr.With(zerr.Wrap(ErrInvalidGlob, err.Error()), "glob", expr)
	}
	return GlobTarget{expr: expr, g: g}, nil
}

// AnyOf creates a composite target from the given members.
func AnyOf(targets ...Target) CompositeTarget {
	return CompositeTarget{Targets: targets}
}

// String returns the literal name.
func (t LiteralTarget) String() string {
	return string(t.Name)
}

// String returns the regular expression source.
func (t PatternTarget) String() string {
	if t.re == nil {
		return "<invalid pattern>"
	}
	return t.re.String()
}

// String returns the glob expression.
func (t GlobTarget) String() string {
	if t.g == nil {
		return "<invalid glob>"
	}
	return t.expr
}

// String returns the members joined with " | ".
func (t CompositeTarget) String() string {
	parts := make([]string, len(t.Targets))
	for i, sub := range t.Targets {
		if sub == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = sub.String()
	}
	return "[" + strings.Join(parts, " | ") + "]"
}

// ValidateTarget reports whether t is a well-formed target.
func ValidateTarget(t Target) error {
	switch v := t.(type) {
	case LiteralTarget:
		return nil
	case PatternTarget:
		if v.re == nil {
			return ErrMalformedTarget
		}
		return nil
	case GlobTarget:
		if v.g == nil {
			return ErrMalformedTarget
		}
		return nil
	case CompositeTarget:
		for _, sub := range v.Targets {
			if err := ValidateTarget(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return ErrMalformedTarget
	}
}

// Match matches node against target. It returns the captured data and true on
// success, or nil and false if the target does not apply to the node.
func Match(target Target, node Node) (Captures, bool) {
	s := string(node)

	switch t := target.(type) {
	case LiteralTarget:
		if string(t.Name) == s {
			return Captures{s}, true
		}
	case PatternTarget:
		if t.re == nil {
			return nil, false
		}
		if m := t.re.FindStringSubmatch(s); m != nil {
			return Captures(m), true
		}
	case GlobTarget:
		if t.g != nil && t.g.Match(s) {
			return Captures{s}, true
		}
	case CompositeTarget:
		for _, sub := range t.Targets {
			if c, ok := Match(sub, node); ok {
				return c, true
			}
		}
	}

	return nil, false
}
