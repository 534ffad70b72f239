//go:build linux

package objectstore

import (
	"os"

	"golang.org/x/sys/unix"
)

// clone asks the filesystem to share src's data blocks with dst. Only some
// filesystems (btrfs, xfs, bcachefs) support FICLONE; callers must fall back
// to a byte copy on any error.
func clone(dst, src *os.File) error {
	return unix.IoctlFileClone(int(dst.Fd()), int(src.Fd()))
}
