// Package fs provides file system adapters for stamping nodes and scanning
// file contents for dependencies.
package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Stamper = (*MTimeStamper)(nil)

// MTimeStamper stamps nodes with the modification time of the file they name.
type MTimeStamper struct {
	root string
}

// NewMTimeStamper creates a stamper resolving relative node names against root.
func NewMTimeStamper(root string) *MTimeStamper {
	return &MTimeStamper{root: root}
}

// Stamp returns the modification time of node in nanoseconds since the epoch.
// A node without a backing file stamps as zero, so it is stale compared to
// any existing dependency and never makes its dependents stale.
func (s *MTimeStamper) Stamp(ctx context.Context, node domain.Node) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path := s.resolve(node)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, zerr.With(zerr.Wrap(err, "cannot stat node"), "path", path)
	}

	return info.ModTime().UnixNano(), nil
}

func (s *MTimeStamper) resolve(node domain.Node) string {
	name := filepath.FromSlash(node.String())
	if filepath.IsAbs(name) || s.root == "" {
		return name
	}
	return filepath.Join(s.root, name)
}
