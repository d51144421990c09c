package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Scanner = (*Scanner)(nil)

// Scanner extracts dependency names from files, such as the headers included
// by a C source file.
type Scanner struct {
	root string
}

// NewScanner creates a scanner resolving relative paths against root.
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// Scan returns the first submatch of every match of re in the file, in order
// of appearance and without duplicates. A missing file yields no names.
func (s *Scanner) Scan(ctx context.Context, path string, re *regexp.Regexp) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if re == nil || re.NumSubexp() < 1 {
		return nil, zerr.With(zerr.Wrap(domain.ErrScanFailed, "regex needs a capture group"), "path", path)
	}

	if !filepath.IsAbs(path) && s.root != "" {
		path = filepath.Join(s.root, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // paths come from the rules file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errors.Join(domain.ErrScanFailed, zerr.With(zerr.Wrap(err, "cannot read file"), "path", path))
	}

	seen := make(map[string]struct{})
	names := []string{}
	for _, m := range re.FindAllSubmatch(data, -1) {
		name := string(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names, nil
}
