package domain

// NodeStatus is the state of a node visited during a build.
type NodeStatus string

const (
	// NodeStatusRunning indicates the node's build step is executing.
	NodeStatusRunning NodeStatus = "running"
	// NodeStatusBuilt indicates the node was stale and its build step succeeded.
	NodeStatusBuilt NodeStatus = "built"
	// NodeStatusUpToDate indicates no dependency was newer than the node.
	NodeStatusUpToDate NodeStatus = "up-to-date"
	// NodeStatusFailed indicates the node or one of its dependencies failed.
	NodeStatusFailed NodeStatus = "failed"
)
