// Package objectstore is a content-addressed blob store keyed by checksum.
// Identical content always lands at the same sharded path, which is what
// makes dedup structural rather than bookkept.
package objectstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwdware/ward/internal/checksum"
)

const tmpPattern = ".tmp-*"

// Store holds objects under dir as <hex[0:2]>/<hex[2:4]>/<hex>.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// PathFor maps a checksum to its shard path. Pure and deterministic.
func (s *Store) PathFor(sum checksum.Sum) string {
	hex := sum.String()
	return filepath.Join(s.dir, hex[0:2], hex[2:4], hex)
}

// Exists reports whether the object for sum is present.
func (s *Store) Exists(sum checksum.Sum) bool {
	fi, err := os.Stat(s.PathFor(sum))
	return err == nil && fi.Mode().IsRegular()
}

// Put stores the content of src under its checksum. A copy-on-write clone is
// attempted first and falls back to a full byte copy; the fallback is never
// surfaced as an error. The object is written to a temporary name and renamed
// into place, so an interrupted put never leaves a partial object visible.
// Idempotent: an existing object makes the call a no-op.
func (s *Store) Put(src string, sum checksum.Sum) error {
	dst := s.PathFor(sum)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	shard := filepath.Dir(dst)
	if err := os.MkdirAll(shard, 0o755); err != nil {
		return fmt.Errorf("create shard dir %q: %w", shard, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source %q: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(shard, tmpPattern)
	if err != nil {
		return fmt.Errorf("create temp object in %q: %w", shard, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if cloneErr := clone(tmp, in); cloneErr != nil {
		if _, err := io.Copy(tmp, in); err != nil {
			tmp.Close()
			return fmt.Errorf("copy %q into store: %w", src, err)
		}
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp object %q: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp object %q: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename %q to %q: %w", tmpPath, dst, err)
	}
	return nil
}

// Remove deletes the object for sum. The store keeps no reference counts;
// the caller must have established that nothing references sum anymore.
// Removing an absent object is not an error.
func (s *Store) Remove(sum checksum.Sum) error {
	err := os.Remove(s.PathFor(sum))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove object %s: %w", sum, err)
	}
	return nil
}

// Sweep removes temp files orphaned by interrupted puts.
func (s *Store) Sweep() error {
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".tmp-") {
			_ = os.Remove(path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("sweep object store: %w", err)
	}
	return nil
}
