package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeTree(t *testing.T, files ...string) *Scanner {
	t.Helper()
	fs := memfs.New()
	for _, f := range files {
		require.NoError(t, util.WriteFile(fs, f, []byte("x"), 0644))
	}
	return NewScanner(fs, "xml", nil)
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(memfs.New(), "pdf", nil)
	if s == nil {
		t.Fatal("NewScanner() returned nil")
	}
}

func TestMatches(t *testing.T) {
	s := NewScanner(memfs.New(), "xml", nil)

	assert.True(t, s.Matches("a.xml"))
	assert.True(t, s.Matches("A.XML"))
	assert.True(t, s.Matches("notxml"))
	assert.False(t, s.Matches("a.xml.bak"))
	assert.False(t, s.Matches("a.pdf"))
}

func TestExists(t *testing.T) {
	s := writeTree(t, "rsp/v1/a.xml", "loose.xml")

	assert.True(t, s.Exists("rsp"))
	assert.False(t, s.Exists("csp"))
	assert.False(t, s.Exists("loose.xml"))
}

func TestFiles_FilesBeforeSubdirectories(t *testing.T) {
	s := writeTree(t,
		"rsp/zz.xml",
		"rsp/v2n1/b.xml",
		"rsp/v1n1/z.XML",
		"rsp/v1n1/a.xml",
		"rsp/v1n1/a.pdf",
		"rsp/top.xml",
		"rsp/v1n1/deep/er/c.xml",
		"csp/v1/other.xml",
	)

	files, err := s.Files(context.Background(), "rsp")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("rsp", "top.xml"),
		filepath.Join("rsp", "zz.xml"),
		filepath.Join("rsp", "v1n1", "a.xml"),
		filepath.Join("rsp", "v1n1", "z.XML"),
		filepath.Join("rsp", "v1n1", "deep", "er", "c.xml"),
		filepath.Join("rsp", "v2n1", "b.xml"),
	}, files)
}

func TestFiles_EmptyAcronym(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("rsp", 0755))
	s := NewScanner(fs, "pdf", nil)

	files, err := s.Files(context.Background(), "rsp")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFiles_Cancelled(t *testing.T) {
	s := writeTree(t, "rsp/v1/a.xml")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Files(ctx, "rsp")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFiles_FollowsSymlinkedAcronym(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "elsewhere", "rsp")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "v1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "v1", "a.xml"), []byte("<article/>"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "xml"), 0755))
	if err := os.Symlink(target, filepath.Join(dir, "xml", "rsp")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s := NewScanner(osfs.New(filepath.Join(dir, "xml")), "xml", nil)
	require.True(t, s.Exists("rsp"))

	files, err := s.Files(context.Background(), "rsp")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("rsp", "v1", "a.xml")}, files)
}

func writeOSTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func TestFiles_SkipsUnreadableDirectory(t *testing.T) {
	root := t.TempDir()
	writeOSTree(t, root, "rsp/v1/a.xml", "rsp/locked/b.xml", "rsp/v2/c.xml")

	locked := filepath.Join(root, "rsp", "locked")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0755) })
	if _, err := os.ReadDir(locked); err == nil {
		t.Skip("directory permissions are not enforced for this user")
	}

	core, logs := observer.New(zapcore.WarnLevel)
	s := NewScanner(osfs.New(root), "xml", zap.New(core))

	files, err := s.Files(context.Background(), "rsp")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("rsp", "v1", "a.xml"),
		filepath.Join("rsp", "v2", "c.xml"),
	}, files)

	skipped := logs.FilterMessage("skipping unreadable directory").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, filepath.Join("rsp", "locked"), skipped[0].ContextMap()["path"])
}

func TestFiles_SymlinksBelowAcronym(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "xml")
	writeOSTree(t, root, "rsp/v1/a.xml")
	writeOSTree(t, dir, "outside/x.xml")

	if err := os.Symlink(filepath.Join(dir, "outside"), filepath.Join(root, "rsp", "mirror.xml")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "rsp", "v1", "a.xml"), filepath.Join(root, "rsp", "link.xml")))

	s := NewScanner(osfs.New(root), "xml", nil)
	files, err := s.Files(context.Background(), "rsp")
	require.NoError(t, err)

	// the directory link is neither descended into nor reported; the file
	// link is reported like a regular file
	assert.Equal(t, []string{
		filepath.Join("rsp", "link.xml"),
		filepath.Join("rsp", "v1", "a.xml"),
	}, files)
}
