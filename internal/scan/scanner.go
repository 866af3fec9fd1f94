// Package scan walks acronym directories under an extension root and
// collects the files a report covers.
package scan

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// Scanner finds report candidates below the root of fs.
type Scanner struct {
	fs     billy.Filesystem
	ext    string
	logger *zap.Logger
}

// NewScanner returns a scanner matching names that end with ext. ext must
// already be normalized (lowercase, no leading dot).
func NewScanner(fs billy.Filesystem, ext string, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{fs: fs, ext: ext, logger: logger}
}

// Exists reports whether acron is a directory below the root.
func (s *Scanner) Exists(acron string) bool {
	info, err := s.fs.Stat(acron)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Matches reports whether a file name carries the scanner's extension.
// The comparison is a plain suffix test on the lowercased name.
func (s *Scanner) Matches(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), s.ext)
}

// Files walks acron recursively and returns the root-relative paths of
// matching files. Within each directory the files come first, in name
// order, followed by the contents of each subdirectory in name order.
// acron itself may be a symlink; symlinks to directories below it are
// neither walked nor reported. Unreadable directories are logged and
// skipped.
func (s *Scanner) Files(ctx context.Context, acron string) ([]string, error) {
	var files []string
	if err := s.walk(ctx, acron, &files); err != nil {
		return nil, err
	}

	s.logger.Debug("walk complete", zap.String("acron", acron), zap.Int("files", len(files)))
	return files, nil
}

func (s *Scanner) walk(ctx context.Context, dir string, files *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		s.logger.Warn("skipping unreadable directory", zap.String("path", dir), zap.Error(err))
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var subdirs []string
	for _, e := range entries {
		path := s.fs.Join(dir, e.Name())
		switch {
		case e.IsDir():
			subdirs = append(subdirs, path)
		case e.Mode()&os.ModeSymlink != 0 && s.linksToDir(path):
		case s.Matches(e.Name()):
			*files = append(*files, path)
		}
	}

	for _, sub := range subdirs {
		if err := s.walk(ctx, sub, files); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) linksToDir(path string) bool {
	target, err := s.fs.Stat(path)
	return err == nil && target.IsDir()
}
