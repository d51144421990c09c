package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/dependo/internal/core/ports"
)

const (
	// StamperNodeID is the unique identifier for the stamper Graft node.
	StamperNodeID graft.ID = "adapter.fs.stamper"
	// ScannerNodeID is the unique identifier for the scanner Graft node.
	ScannerNodeID graft.ID = "adapter.fs.scanner"
)

// Both adapters resolve relative paths against the working directory, which
// the CLI sets to the directory of the rules file.
func init() {
	graft.Register(graft.Node[ports.Stamper]{
		ID:        StamperNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Stamper, error) {
			return NewMTimeStamper(""), nil
		},
	})

	graft.Register(graft.Node[ports.Scanner]{
		ID:        ScannerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Scanner, error) {
			return NewScanner(""), nil
		},
	})
}
