// Package integrity reconciles filesystem state against the metadata store.
package integrity

import (
	"path/filepath"
	"strings"

	"github.com/fwdware/ward/internal/errs"
	"github.com/fwdware/ward/internal/repo"
)

// Engine composes the scanner, metadata store and object store. All metadata
// writes go through one goroutine; only checksum computation fans out.
type Engine struct {
	sess *repo.Session
}

func New(sess *repo.Session) *Engine {
	return &Engine{sess: sess}
}

// resolveScope normalizes a user-supplied path into a root-relative,
// slash-separated scope ("" means the whole repository) and its absolute
// form. Paths escaping the repository are rejected.
func (e *Engine) resolveScope(path string) (rel string, abs string, err error) {
	if path == "" {
		path = "."
	}
	abs = path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.sess.Root, path)
	}
	abs = filepath.Clean(abs)

	rel, rerr := filepath.Rel(e.sess.Root, abs)
	if rerr != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", errs.Newf(errs.KindIO, "path %q is outside the repository %q", path, e.sess.Root)
	}
	if rel == "." {
		rel = ""
	}
	return filepath.ToSlash(rel), abs, nil
}

func (e *Engine) absPath(rel string) string {
	return filepath.Join(e.sess.Root, filepath.FromSlash(rel))
}

func fmtScope(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
