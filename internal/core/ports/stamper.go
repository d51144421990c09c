package ports

import (
	"context"
	"regexp"

	"go.trai.ch/dependo/internal/core/domain"
)

//go:generate mockgen -source=stamper.go -destination=mocks/mock_stamper.go -package=mocks

// Stamper produces modification stamps for nodes backed by files.
type Stamper interface {
	// Stamp returns the stamp of node. A node without a backing file stamps as zero.
	Stamp(ctx context.Context, node domain.Node) (int64, error)
}

// Scanner extracts dependency names from file contents.
type Scanner interface {
	// Scan returns the first submatch of every match of re in the file at path,
	// in order of appearance.
	Scan(ctx context.Context, path string, re *regexp.Regexp) ([]string, error)
}
