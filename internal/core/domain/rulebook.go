package domain

import "regexp"

// Rulebook is the declarative form of a rules file, independent of its format.
type Rulebook struct {
	// Path is the absolute path of the rules file.
	Path string
	// Root is the directory containing the rules file. Commands run there.
	Root string
	// Phony lists the declared phony targets.
	Phony []Target
	// PhonyAlwaysStale makes phony targets rebuild regardless of stamps.
	PhonyAlwaysStale bool
	// Environment holds the variables from env_file and environment, the latter winning.
	Environment map[string]string
	// Rules are the rules in file order.
	Rules []RuleSpec
}

// RuleSpec is a single rule of a rules file.
type RuleSpec struct {
	// Index is the position of the rule in the file, used in error metadata.
	Index int
	// Target selects the nodes the rule applies to.
	Target Target
	// Requires are dependency templates. Nil means the rule declares no dependency rule.
	Requires []string
	// Scan optionally derives further dependencies from file contents.
	Scan *ScanSpec
	// Run is the command template. Empty means the rule declares no build step.
	Run []string
}

// ScanSpec derives dependencies from the contents of a file.
type ScanSpec struct {
	// File is a template naming the file to scan.
	File string
	// Regex must have at least one capture group; group 1 is the dependency name.
	Regex *regexp.Regexp
	// Prefix is a template prepended to every scanned name.
	Prefix string
}

// HasDependencies reports whether the rule registers a dependency rule.
func (r *RuleSpec) HasDependencies() bool {
	return r.Requires != nil || r.Scan != nil
}

// HasBuildStep reports whether the rule registers a build step.
func (r *RuleSpec) HasBuildStep() bool {
	return len(r.Run) > 0
}

// RulesFileNames are the rules file names looked up during discovery, in
// order of preference within a directory.
var RulesFileNames = []string{"dependo.yaml", "dependo.yml", "dependo.hcl", "dependo.toml"}
