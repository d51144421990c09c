package config

// Rulefile is the on-disk structure of a rules file. The same structure is
// decoded from YAML, HCL and TOML.
type Rulefile struct {
	Version          string            `yaml:"version" toml:"version" hcl:"version,optional"`
	Phony            []string          `yaml:"phony" toml:"phony" hcl:"phony,optional"`
	PhonyAlwaysStale bool              `yaml:"phony_always_stale" toml:"phony_always_stale" hcl:"phony_always_stale,optional"`
	EnvFile          string            `yaml:"env_file" toml:"env_file" hcl:"env_file,optional"`
	Environment      map[string]string `yaml:"environment" toml:"environment" hcl:"environment,optional"`
	Rules            []*RuleDTO        `yaml:"rules" toml:"rules" hcl:"rule,block"`
}

// RuleDTO is a single rule. Exactly one of Target, Pattern, Glob and Any
// selects the nodes it applies to.
type RuleDTO struct {
	Target   string   `yaml:"target" toml:"target" hcl:"target,optional"`
	Pattern  string   `yaml:"pattern" toml:"pattern" hcl:"pattern,optional"`
	Glob     string   `yaml:"glob" toml:"glob" hcl:"glob,optional"`
	Any      []string `yaml:"any" toml:"any" hcl:"any,optional"`
	Requires []string `yaml:"requires" toml:"requires" hcl:"requires,optional"`
	Scan     *ScanDTO `yaml:"scan" toml:"scan" hcl:"scan,block"`
	Run      []string `yaml:"run" toml:"run" hcl:"run,optional"`
}

// ScanDTO derives dependencies from the contents of a file.
type ScanDTO struct {
	File   string `yaml:"file" toml:"file" hcl:"file"`
	Regex  string `yaml:"regex" toml:"regex" hcl:"regex"`
	Prefix string `yaml:"prefix" toml:"prefix" hcl:"prefix,optional"`
}
