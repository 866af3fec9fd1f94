package report

import (
	"errors"
	"fmt"

	"filereport/internal/xmlmeta"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// ErrNotRegular is returned for matched paths that are not regular files.
var ErrNotRegular = errors.New("not a regular file")

// Builder turns root-relative paths into rows.
type Builder struct {
	fs     billy.Filesystem
	root   string // display prefix for the path column
	ext    string
	logger *zap.Logger
}

// NewBuilder returns a builder reading from fs. root is the on-disk
// location of fs and only affects the path column.
func NewBuilder(fs billy.Filesystem, root, ext string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		fs:     fs,
		root:   root,
		ext:    ext,
		logger: logger,
	}
}

// Result is the outcome of building one row.
type Result struct {
	Row       Row
	XMLFailed bool // XML inspection failed; Row carries only base columns
}

// Build stats rel and, for XML reports, inspects its content. A stat
// failure is returned as an error; an XML failure is logged and reported
// through Result.XMLFailed.
func (b *Builder) Build(acron, rel string) (Result, error) {
	info, err := b.fs.Stat(rel)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("%s: %w", rel, ErrNotRegular)
	}

	dir, volume, name := splitRel(b.root, rel)
	res := Result{
		Row: Row{
			Acron:   acron,
			Dir:     dir,
			Volume:  volume,
			Name:    name,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		},
	}

	if b.ext != "xml" {
		return res, nil
	}

	m, err := inspectFile(b.fs, rel)
	if err != nil {
		b.logger.Warn("failed to read XML content",
			zap.String("path", dir+name),
			zap.Error(err))
		res.XMLFailed = true
		return res, nil
	}
	res.Row.XML = &m
	return res, nil
}

func inspectFile(fs billy.Filesystem, rel string) (xmlmeta.Metrics, error) {
	f, err := fs.Open(rel)
	if err != nil {
		return xmlmeta.Metrics{}, err
	}
	defer f.Close()
	return xmlmeta.Inspect(f)
}
