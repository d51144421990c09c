package domain

// Command is a process invocation produced by a rule's run template.
type Command struct {
	// Node is the node the command builds.
	Node Node
	// Args is the program followed by its arguments.
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env holds "KEY=VALUE" pairs added to the allow-listed host environment.
	Env []string
}
