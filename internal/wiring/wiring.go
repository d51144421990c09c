// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/dependo/internal/adapters/config"
	_ "go.trai.ch/dependo/internal/adapters/fs"
	_ "go.trai.ch/dependo/internal/adapters/logger"
	_ "go.trai.ch/dependo/internal/adapters/metrics"
	_ "go.trai.ch/dependo/internal/adapters/shell"
	_ "go.trai.ch/dependo/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/dependo/internal/app"
)
