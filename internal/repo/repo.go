// Package repo locates, initializes and opens a ward repository.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwdware/ward/internal/config"
	"github.com/fwdware/ward/internal/errs"
	"github.com/fwdware/ward/internal/metadata"
	"github.com/fwdware/ward/internal/objectstore"
)

// Find walks from dir toward the filesystem root looking for a control
// directory with a metadata database, and returns the repository root.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", dir, err)
	}

	for {
		db := config.DatabasePath(dir)
		if fi, err := os.Stat(db); err == nil && fi.Mode().IsRegular() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errs.Newf(errs.KindRepository, "no ward repository found (missing %s)", config.RepoDir)
		}
		dir = parent
	}
}

// Init creates the control directory, database schema, default configuration
// and ignore file under root. Re-running on a valid repository is a no-op.
func Init(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", root, err)
	}

	if err := os.MkdirAll(config.ObjectsPath(root), 0o755); err != nil {
		return errs.New(errs.KindIO, "create control directory", err)
	}

	db, err := metadata.Open(config.DatabasePath(root))
	if err != nil {
		return err
	}
	if err := db.Close(); err != nil {
		return errs.New(errs.KindDatabase, "close metadata database", err)
	}

	if _, err := config.Load(root); err != nil {
		return errs.New(errs.KindConfig, "initialize configuration", err)
	}

	ignorePath := config.IgnorePath(root)
	if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
		content := "# One glob per line. Blank lines and # comments are skipped.\n" +
			strings.Join(config.DefaultIgnorePatterns, "\n") + "\n"
		if err := os.WriteFile(ignorePath, []byte(content), 0o644); err != nil {
			return errs.New(errs.KindIO, "write default ignore file", err)
		}
	}

	// Interrupted puts from an earlier invocation leave temp files behind.
	if err := objectstore.New(config.ObjectsPath(root)).Sweep(); err != nil {
		return err
	}
	return nil
}
