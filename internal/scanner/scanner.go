// Package scanner enumerates candidate files for the integrity engine.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fwdware/ward/internal/config"
)

// Walk returns the slash-separated, root-relative paths of all regular files
// under scope, sorted. The control directory is always skipped, symlinks are
// never followed, and ignore rules apply to files and whole directories.
// Each call walks the tree fresh.
func Walk(root, scope string, rules *Rules) ([]string, error) {
	if scope == "" {
		scope = root
	}

	var paths []string
	err := filepath.WalkDir(scope, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A scope that no longer exists scans to an empty list, so
			// deleting a whole tracked directory still surfaces as
			// deletions on the next add.
			if errors.Is(err, fs.ErrNotExist) && path == scope {
				return filepath.SkipAll
			}
			// Unreadable subtree: skip it, do not abort the scan.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == config.RepoDir || rules.Ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		// Regular files only; symlinks would introduce cycles and
		// double-counted content.
		if !d.Type().IsRegular() {
			return nil
		}
		if rules.Ignored(rel) {
			return nil
		}

		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", scope, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// WithinScope reports whether the relative path rel lies under the relative
// scope. The boundary is a whole path segment: scope "docs" covers
// "docs/a.txt" but never "docs2/a.txt".
func WithinScope(rel, scope string) bool {
	if scope == "" || scope == "." {
		return true
	}
	scope = strings.TrimSuffix(filepath.ToSlash(scope), "/")
	rel = filepath.ToSlash(rel)
	return rel == scope || strings.HasPrefix(rel, scope+"/")
}
