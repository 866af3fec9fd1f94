// Package acronym resolves the list of publication acronyms a report covers,
// either from a plain text list or from the subdirectories of the
// extension root.
package acronym

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// ErrAcronymFileNotFound is returned when the acronym list does not exist.
var ErrAcronymFileNotFound = errors.New("acronym file not found")

// FromFile reads one acronym per line. Lines are trimmed and blank lines
// dropped; order and duplicates are kept.
func FromFile(fs billy.Filesystem, path string) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAcronymFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open acronym file %s: %w", path, err)
	}
	defer f.Close()

	var acronyms []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		acronyms = append(acronyms, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read acronym file %s: %w", path, err)
	}

	return acronyms, nil
}

// FromDir lists the immediate subdirectories of root, sorted by name.
// Symlinks are followed.
func FromDir(fs billy.Filesystem, root string) ([]string, error) {
	entries, err := fs.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list directories in %s: %w", root, err)
	}

	var acronyms []string
	for _, e := range entries {
		if e.Mode()&os.ModeSymlink != 0 {
			target, err := fs.Stat(fs.Join(root, e.Name()))
			if err != nil {
				continue
			}
			e = target
		}
		if e.IsDir() {
			acronyms = append(acronyms, e.Name())
		}
	}
	sort.Strings(acronyms)

	return acronyms, nil
}
